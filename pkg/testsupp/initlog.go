package testsupp

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/dusted-go/logging/prettylog"
	slogformatter "github.com/samber/slog-formatter"
)

// InitLog routes the default logger to stdout at debug level.
func InitLog(t testing.TB) {
	t.Helper()

	funcHandler := slogformatter.NewFormatterHandler(
		slogformatter.FormatByType(func(s []string) slog.Value {
			return slog.StringValue(strings.Join(s, ","))
		}),
	)

	plHandler := prettylog.New(
		&slog.HandlerOptions{Level: slog.LevelDebug},
		prettylog.WithDestinationWriter(os.Stdout),
	)

	prev := slog.Default()
	slog.SetDefault(slog.New(funcHandler(plHandler)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
