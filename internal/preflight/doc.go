// Package preflight checks that pdfsearch can index a directory before it
// starts: the base directory is readable, the data directory is writable and
// has free space, the descriptor limit suits watch mode, and tesseract can
// load the configured OCR language.
//
//	checker := preflight.New(preflight.WithOCR(ocr, "pol"))
//	results := checker.RunAll(ctx, baseDir, dataDir)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to start
//	}
//
// serve runs the checks once per data directory and records success in a
// marker file; pdfsearch doctor runs them on demand.
package preflight
