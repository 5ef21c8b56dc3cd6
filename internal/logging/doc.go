// Package logging configures structured slog output for pdfsearch.
//
// Logs are JSON lines written to a size-rotated file under ~/.pdfsearch/logs/
// and optionally mirrored to stderr. In serve mode stdout belongs to the MCP
// transport, so nothing is written there.
package logging
