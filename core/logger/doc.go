// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports console and json
// encodings and can tee every entry into job log files.
//
// # Job logs
//
// A job writes one coordinator log (main_log_job_<id>.log) and one log per
// worker rank (worker_<rank>_job_<id>.log) into logs_<id>/ below the
// configured directory. PrepareDir recreates that directory at job start.
//
// # Usage
//
//	dir, _ := logger.PrepareDir(cfg.Log.Dir, params.JobID)
//	log, _ := logger.New(&cfg.Log, logger.JobLogPath(dir, params.JobID))
//	log = logger.WithRank(log, 0)
//	log.Info("Coordinator started")
package logger
