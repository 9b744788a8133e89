// Package config provides configuration management for the file hasher.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file. Command-line flags override the loaded values.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Hasher: algorithm, worker count, manifest and script names, excludes
//   - Server: review server port, API key and manifest references
//   - Database: catalog driver and connection details
//   - Storage: S3/MinIO credentials, bucket and key prefix
//   - Log: Logging level and format
//
// Every field is reachable as SECTION_FIELD, e.g. HASHER_ALGORITHM=blake2b.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Hasher.Algorithm)
package config
