// Package config contains the utilities used to validate the configurations
// across the library. Invalid fields are never fatal: they are replaced
// with their default value and reported as anomalies.
package config

// Config defines the minimal interface for a configuration
// in order to be validated.
type Config interface {
	// Validate checks the configuration, fixing the invalid fields.
	Validate(ac *AnomalyCollector)
}
