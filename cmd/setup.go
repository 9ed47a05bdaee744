package cmd

import (
	"context"
	"fmt"

	"eps-prepro/core/config"
	"eps-prepro/core/database"
	"eps-prepro/core/logger"
	"eps-prepro/core/storage"
	"eps-prepro/feature/catalog"
	"eps-prepro/feature/tools"

	"go.uber.org/zap"
)

// loadJob reads the application config and the parameter file of a job.
func loadJob(paramFile string) (*config.Config, *config.Parameters, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	params, err := config.LoadParameters(paramFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, params, nil
}

// newAdapter wires the external NetCDF tools named in the config.
func newAdapter(cfg *config.Config, l *zap.Logger) *tools.CDO {
	return tools.NewCDO(tools.Executables{
		CDO:        cfg.Tools.CDO,
		NCAP2:      cfg.Tools.NCAP2,
		NCPDQ:      cfg.Tools.NCPDQ,
		GribFilter: cfg.Tools.GribFilter,
	}, tools.ExecRunner{Logger: l})
}

// consoleLogger is the logger of commands that write no log files.
func consoleLogger(cfg *config.Config) (*zap.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// openCatalog connects the catalog database when it is enabled. migrate
// creates the table; otherwise the existing schema is checked.
func openCatalog(cfg *config.Config, migrate bool, l *zap.Logger) (*catalog.Store, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	store := catalog.NewStore(db)
	if migrate {
		err = store.Migrate()
	} else {
		err = store.CheckSchema()
	}
	if err != nil {
		return nil, err
	}
	l.Info("Connected to catalog database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("name", cfg.Database.Name),
	)
	return store, nil
}

// openStorage creates the object storage client when publishing is enabled
// and makes sure the bucket exists.
func openStorage(ctx context.Context, cfg *config.Config, l *zap.Logger) (storage.Client, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		return nil, err
	}
	l.Info("Connected to object storage",
		zap.String("endpoint", cfg.Storage.Endpoint),
		zap.String("bucket", cfg.Storage.Bucket),
	)
	return client, nil
}
