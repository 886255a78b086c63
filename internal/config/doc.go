// Package config loads logsearch presets from a YAML file named on the
// command line. It is internal; CLI code merges the presets under the flags
// into engine configuration.
package config
