// Package config loads relay server configuration with viper and reads and
// writes the CLI profile as TOML.
package config
