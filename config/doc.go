// Package config loads command configuration with viper and godotenv.
//
// Values are merged from defaults, cmd/<name>/config.yml, an optional .env
// file and the environment. Every key present in the file or the defaults
// can be overridden by an upper-cased, underscore-joined variable carrying
// the service prefix:
//
//	dag:
//	  max_parallel: 4      # SPINDLE_DAG_MAX_PARALLEL=1
//
// # Usage
//
//	var cfg Config
//	if err := config.LoadConfig("spindle", &cfg); err != nil { ... }
package config
