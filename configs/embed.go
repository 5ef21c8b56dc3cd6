// Package configs provides embedded configuration templates for pdfsearch.
//
// The templates are used by:
//   - cmd/pdfsearch/cmd/config.go: `pdfsearch config init` writes .pdfsearch.yaml
//     in the base directory, or with --user ~/.config/pdfsearch/config.yaml.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/pdfsearch/config.yaml)
//  3. Project config (.pdfsearch.yaml)
//  4. .env in the base directory
//  5. Environment variables (PDFSEARCH_*)
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-level configuration.
// Contains: OCR language and resolution, render workers, log level.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for the per-directory configuration.
// Contains: excludes, extraction threshold, search and render settings.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
