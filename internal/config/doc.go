// Package config loads, normalizes, and validates armangle's TOML
// configuration.
//
// Configuration resolves from the first of: an explicit --config path,
// ~/.config/armangle/config.toml, or an armangle.toml in the working
// directory. Missing files fall back to Default() so the tool runs with
// zero configuration. Paths support ~ expansion and are made absolute
// during normalization; validation rejects unusable values before any
// unit is touched.
package config
