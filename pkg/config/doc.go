// Package config loads environment-tagged configuration structs with
// process-wide caching, so every package can declare its own Config type
// and load it independently without re-parsing the environment.
package config
