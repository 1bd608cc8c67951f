// Package log provides slog-based logging for the harvester.
//
// Harvested pages can run to hundreds of kilobytes, and debug logging
// routinely attaches content snippets. The TruncateHandler wrapper caps
// oversized string attributes before they reach the underlying handler so
// that a debug run does not flood the terminal or a log aggregator with
// whole books.
package log
