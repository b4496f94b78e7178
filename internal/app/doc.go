// Package app wires application dependencies for the CLI.
//
// It loads the YAML configuration with defaults, then builds the concrete
// keystore, session arena, sweeper and service from it, exposing them via
// the Wire struct for commands to use.
package app
