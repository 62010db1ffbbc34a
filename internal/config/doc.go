// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. Both binaries share one schema; the generator ignores
// the database section and the gateway ignores the symbol universe.
package config
