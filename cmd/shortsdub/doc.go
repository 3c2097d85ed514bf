// Package main hosts the shortsdub CLI entrypoint and command graph.
//
// The Cobra command tree runs the HTTP daemon in the foreground, dubs a
// single URL without the daemon, reads the job ledger, lists synthesis
// voices, sweeps stale artifacts, and scaffolds configuration. Environment
// variables from a .env file are loaded before configuration so provider
// keys can live outside the TOML file.
package main
