// Package configs embeds the default configuration shipped with the
// binary, so every distribution carries the same baseline regardless of
// how it was installed.
//
// The embedded file is the source of truth for the category
// applicability table and for documented defaults; internal/config
// parses it once at startup before layering user files and GOVSTD_*
// environment overrides on top.
package configs

import _ "embed"

// DefaultConfigTemplate is the built-in configuration, including the
// closed category set with its applicability metadata. It is parsed by
// internal/config.NewConfig and written verbatim by `govstandards
// config init`.
//
//go:embed default.yaml
var DefaultConfigTemplate string
