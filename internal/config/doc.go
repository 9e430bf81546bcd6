// Package config provides configuration loading and validation for the
// voice codec service. It handles YAML-based configuration with struct
// validation and sensible defaults for unset fields.
package config
