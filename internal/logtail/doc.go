// Package logtail reads the tail of the cattlelens log file and parses its
// records for display.
//
// Read keeps a ring buffer of maxLines entries while scanning, so memory use
// is bounded by the number of lines requested rather than the file size. A
// missing file is not an error.
//
// Parse understands the log/slog text handler format:
//
//	time=2026-10-18T09:30:00.000Z level=WARN msg="health probe failed" component=classifier endpoint=http://localhost:8001
//
// Lines that do not follow that shape are returned as plain messages so the
// diagnostics view can still show them.
package logtail
