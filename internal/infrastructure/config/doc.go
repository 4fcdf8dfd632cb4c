// Package config handles loading, validating and persisting Scoreline
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields and default value handling
//   - A live Store with atomic, validated mutations persisted back to disk
//   - Hot reload when the file changes on disk
//
// Security Considerations:
//   - Sensitive values (MQTT passwords, InfluxDB tokens) should be set via
//     environment variables
//   - The config file is written with restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup; Get returns the shared
//     snapshot without copying
//   - Mutations clone the full config; fine for fleet-sized inventories
//
// Usage:
//
//	store, err := config.NewStore("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg := store.Get()
//	fmt.Println(len(cfg.Devices))
package config
