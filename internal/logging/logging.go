// Package logging provides PicoLAN's default slog handler: a colored,
// human-readable console handler, matching the small standalone tools in
// the reference pack that build their own logger in main rather than
// taking one as a required dependency.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// NewDefault returns a *slog.Logger writing tint-colored text to w at the
// given level. Callers that already have a *slog.Logger (e.g. an embedding
// service) should pass that one to picolan instead of using this.
func NewDefault(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level}))
}
