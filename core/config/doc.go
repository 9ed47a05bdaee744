// Package config provides configuration management for the preprocessing job.
//
// Two sources are read at startup:
//
//   - Config: application settings (logging, object storage, catalog database,
//     notifications, status server, tool executables) loaded by Viper from
//     environment variables and an optional .env file. Defaults come from the
//     `default` struct tags.
//   - Parameters: the job description, a KEY = VALUE parameter file naming the
//     source, destination and input directories, the unit granularity and the
//     index aligned per-variable lists. Viper reads it as a properties file.
//
// Both are built once and passed down by value or pointer; no component reads
// global configuration state.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	params, err := config.LoadParameters("parameters_201701.dat")
//	for _, v := range params.Variables {
//	    fmt.Println(v.Name, v.Deaccumulate)
//	}
package config
