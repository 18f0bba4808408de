// Package config defines the trainpi settings and provides helpers to load,
// validate and save them.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// TRAINPI_* environment variables. Save writes the YAML form.
package config
