// Package config loads and validates marketd configuration from YAML.
//
// Loading is three-tiered: Load parses and expands ${VAR} references,
// LoadWithDefaults fills optional fields, LoadAndValidate additionally
// rejects invalid values.
package config
