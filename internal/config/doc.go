// Package config loads, normalizes, and validates shortsdub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ELEVENLABS_API_KEY and OPENROUTER_API_KEY. The Config type centralizes every
// knob the server and CLI need and is passed explicitly into the pipeline and
// its stage adapters, so tests can construct one per run.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
