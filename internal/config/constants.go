package config

// Application constants
const (
	AppName    = "ptbxl"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "PTBXL"

	// ConfigFileEnv names an explicit YAML config file.
	ConfigFileEnv = "PTBXL_CONFIG"

	DefaultDatabaseFile   = "ptbxl_database.csv"
	DefaultStatementsFile = "scp_statements.csv"
	DefaultOutputFile     = "ptbxl_processed.csv"

	// PTB-XL ships every record at these two rates.
	SamplingRateLow  = 100
	SamplingRateHigh = 500

	// Folds recommended by the dataset authors for validation and test.
	DefaultValidationFold = 9
	DefaultTestFold       = 10
)
