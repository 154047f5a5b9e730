// Package config loads, normalizes, and validates docshed settings.
//
// Configuration comes from a single TOML file. Load applies defaults
// for missing keys, expands ~ in paths, lowercases enum-style values,
// and rejects combinations the pipeline cannot operate with. The shed
// directory layout (ledger, objects, bundles, logs) is derived from
// paths.shed_dir by the accessor methods on Config.
package config
