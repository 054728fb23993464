// Package config defines the runtime configuration for filegrab.
//
// Configuration is assembled in three layers, later layers winning:
// built-in defaults, the optional .filegrab YAML file, and CLI flags.
// The assembled Config is validated once before any network activity and
// passed through the application by dependency injection rather than
// global state.
package config
