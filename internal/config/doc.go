// Package config provides centralized configuration management for schoolpulse.
// It handles loading configuration from multiple sources, validation, and path
// resolution for the dataset files.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SCHOOLPULSE_* for namespacing:
//
//	SCHOOLPULSE_SERVER_PORT=8080
//	SCHOOLPULSE_LOGGING_LEVEL=debug
//	SCHOOLPULSE_DATASET_DATA_DIR=/srv/admissions
//	SCHOOLPULSE_DATASET_ENCODING=shift_jis
//	SCHOOLPULSE_DATASET_WATCH=false
//
// # Dataset Sources
//
// The yearly files are a fixed, ordered list. They can only be changed in the
// YAML file, where an explicit list replaces the defaults:
//
//	dataset:
//	  data_dir: data
//	  sources:
//	    - {year: 2022, path: 2022_tokyo_high_school_Entrance_examination_application_status.csv}
//	    - {year: 2023, path: 2023_tokyo_high_school_Entrance_examination_application_status.csv}
//	    - {year: 2024, path: 2024_tokyo_high_school_Entrance_examination_application_status.csv}
//
// Relative paths are resolved against the directory holding the config file, or
// the working directory when no file is used.
package config
