// Package config provides centralized configuration management for the ptbxl
// preprocessing tool. It loads configuration from multiple sources, validates
// it, and exposes a typed API for the commands and the processing pipeline.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values (Default())
//	2. A YAML file (config.yaml, configs/config.yaml, or PTBXL_CONFIG)
//	3. A .env file in the working directory, if present
//	4. Environment variables
//
// Command-line flags are applied on top by the CLI.
//
// # Environment Variables
//
// All environment variables follow the pattern PTBXL_<SECTION>_<FIELD>:
//
//	PTBXL_DATASET_ROOT=/data/ptb-xl-1.0.3
//	PTBXL_DATASET_SAMPLING_RATE=500
//	PTBXL_PROCESSING_WORKERS=8
//	PTBXL_PROCESSING_FEATURE_COLUMNS=age,sex,height
//	PTBXL_LOGGING_LEVEL=debug
//	PTBXL_TELEMETRY_METRICS_FILE=/var/lib/node_exporter/ptbxl.prom
//
// # Dataset Paths
//
// DatasetConfig.Paths resolves the database and statement files against the
// dataset root; waveform filenames from the database are resolved the same way
// with DatasetPaths.RecordPath.
package config
