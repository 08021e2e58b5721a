// Package config loads the application configuration and resolves the file
// system layout.
//
// Values are layered: built-in defaults, then an optional YAML file
// (config.yaml or configs/config.yaml), then environment variables prefixed
// with ANYU_, optionally seeded from a .env file. The result is validated
// before use.
package config
