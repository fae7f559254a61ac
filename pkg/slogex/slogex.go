package slogex

import (
	"log/slog"
)

// Error renders err as a flat "error" attribute. Use go-stacktrace/slogex for
// errors carrying traces.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Attr{Key: "error", Value: slog.StringValue(err.Error())}
}
