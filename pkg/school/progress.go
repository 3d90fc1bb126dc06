package school

import (
	"context"
	"time"
)

type progressContextKey string

const progressCallbackKey progressContextKey = "progress_callback"

// ProgressEvent is emitted once per issued query, after it completed.
type ProgressEvent struct {
	Query string
	// Index is the 1-based position of the query.
	Index int
	Total int
	// Found is the number of records parsed from the query results.
	Found int
	// Err is set when the query failed.
	Err     error
	Elapsed time.Duration
}

func (e ProgressEvent) Failed() bool {
	return e.Err != nil
}

// Progress returns the ratio of completed queries.
func (e ProgressEvent) Progress() float64 {
	if e.Total == 0 {
		return 1
	}

	return float64(e.Index) / float64(e.Total)
}

// ProgressFunc receives progress events. It is called synchronously.
type ProgressFunc func(event ProgressEvent)

// WithProgress attaches a progress callback to the context.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressCallbackKey, fn)
}

type progressTracker struct {
	startTime time.Time
	callback  ProgressFunc
	total     int
}

func newProgressTracker(ctx context.Context, total int) *progressTracker {
	callback, _ := ctx.Value(progressCallbackKey).(ProgressFunc)

	return &progressTracker{
		startTime: time.Now(),
		callback:  callback,
		total:     total,
	}
}

func (pt *progressTracker) emit(index int, query string, found int, err error) {
	if pt.callback == nil {
		return
	}

	pt.callback(ProgressEvent{
		Query:   query,
		Index:   index,
		Total:   pt.total,
		Found:   found,
		Err:     err,
		Elapsed: time.Since(pt.startTime),
	})
}
