// Package logx wraps log/slog with a handler tailored to translation
// diagnostics: every record is written to the configured sink, and
// additionally mirrored to stderr once its level clears a configurable
// threshold, so a long batch translation run can be pointed at a log file
// while still surfacing warnings and worse on the console.
package logx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that always writes to out (if set) and mirrors
// to stderr once a record's level reaches Mirror.
type Handler struct {
	out    io.Writer
	h      slog.Handler
	mu     *sync.Mutex
	mirror slog.Level
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu, mirror: h.mirror}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithGroup(name), mu: h.mu, mirror: h.mirror}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	formattedTime := r.Time.Format("2006/01/02 15:04:05")
	strs := []string{formattedTime, r.Level.String() + ":", r.Message}

	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.String())
			return true
		})
	}
	line := strings.Join(strs, " ") + "\n"
	b := []byte(line)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if r.Level >= h.mirror {
		_, werr := os.Stderr.Write(b)
		if err == nil {
			err = werr
		}
	}
	return err
}

// New returns a Handler writing text-formatted records to out, mirroring
// records at mirror level or above to stderr. opts may be nil.
func New(out io.Writer, opts *slog.HandlerOptions, mirror slog.Level) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		out: out,
		h: slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu:     &sync.Mutex{},
		mirror: mirror,
	}
}

// Default returns a Logger writing to out at slog.LevelInfo, mirroring
// warnings and errors to stderr.
func Default(out io.Writer) *slog.Logger {
	return slog.New(New(out, nil, slog.LevelWarn))
}
