package config

import (
	"github.com/FerroO2000/ringbuf/internal"
)

// Validator is an utility struct for validating a configuration.
// Every anomaly is logged as a warning.
type Validator struct {
	tel *internal.Telemetry
}

// NewValidator returns a new validator.
func NewValidator(tel *internal.Telemetry) *Validator {
	return &Validator{
		tel: tel,
	}
}

// Validate validates the given configuration and returns
// the number of fields that have been replaced.
func (v *Validator) Validate(config Config) int {
	ac := NewAnomalyCollector()
	config.Validate(ac)

	for anomaly := range ac.All() {
		v.tel.LogWarn("config anomaly",
			"field", anomaly.Field, "reason", anomaly.Reason,
			"actual", anomaly.Actual, "fallback", anomaly.Fallback)
	}

	return ac.Len()
}
