package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Writer runs cache write-backs off the request path. Tasks get a context
// that outlives the request and their failures are only logged.
type Writer struct {
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger zerolog.Logger) *Writer {
	return &Writer{logger: logger.With().Str("component", "cache-writer").Logger()}
}

// Go runs fn in the background and returns immediately.
func (w *Writer) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error().Str("task", name).Str("panic", fmt.Sprint(r)).Msg("cache write panicked")
			}
		}()
		if err := fn(ctx); err != nil {
			w.logger.Warn().Err(err).Str("task", name).Msg("cache write failed")
		}
	}()
}

// Wait blocks until every started task has finished.
func (w *Writer) Wait() {
	w.wg.Wait()
}
