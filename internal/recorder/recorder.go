// Package recorder persists sealed sessions off the engine's goroutine.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pomodoro/timer/internal/model"
	"pomodoro/timer/internal/timer"
)

const (
	DefaultQueueSize = 256
	DefaultTimeout   = 5 * time.Second
)

// Sink stores sessions. SaveSession must be idempotent by session id.
type Sink interface {
	Name() string
	SaveSession(ctx context.Context, userID string, session model.Session) error
}

type Options struct {
	QueueSize int
	Timeout   time.Duration
	Logger    *slog.Logger
}

type job struct {
	userID  string
	session model.Session
	// barrier, when set, marks a Flush point instead of a session.
	barrier chan struct{}
}

// Recorder is a bounded queue drained by one worker that writes every job to
// each sink in order. Sink failures are logged and not retried.
type Recorder struct {
	sinks   []Sink
	log     *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	queue  chan job
	closed bool
	done   chan struct{}
}

// New starts the worker. Call Close to drain and stop it.
func New(options Options, sinks ...Sink) *Recorder {
	if options.QueueSize <= 0 {
		options.QueueSize = DefaultQueueSize
	}
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	r := &Recorder{
		sinks:   sinks,
		log:     options.Logger,
		timeout: options.Timeout,
		queue:   make(chan job, options.QueueSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Enqueue hands a session to the worker without blocking. It reports false
// when the queue is full or the recorder is closed.
func (r *Recorder) Enqueue(userID string, session model.Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.log.Warn("recorder closed, dropping session",
			slog.String("session_id", session.ID),
			slog.String("user_id", userID),
		)
		return false
	}
	select {
	case r.queue <- job{userID: userID, session: session.Clone()}:
		return true
	default:
		r.log.Warn("recorder queue full, dropping session",
			slog.String("session_id", session.ID),
			slog.String("user_id", userID),
		)
		return false
	}
}

// ForUser adapts the recorder to the engine's SessionRecorder contract.
func (r *Recorder) ForUser(userID string) timer.SessionRecorder {
	return userRecorder{recorder: r, userID: userID}
}

// Flush waits until every session queued before the call has been written.
func (r *Recorder) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		<-r.done
		return nil
	}
	select {
	case r.queue <- job{barrier: barrier}:
		r.mu.RUnlock()
	case <-ctx.Done():
		r.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting sessions and waits until queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for j := range r.queue {
		if j.barrier != nil {
			close(j.barrier)
			continue
		}
		for _, sink := range r.sinks {
			r.write(sink, j)
		}
	}
}

func (r *Recorder) write(sink Sink, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := sink.SaveSession(ctx, j.userID, j.session); err != nil {
		r.log.Error("record session failed",
			slog.String("sink", sink.Name()),
			slog.String("session_id", j.session.ID),
			slog.String("user_id", j.userID),
			slog.Any("error", err),
		)
		return
	}
	r.log.Debug("session recorded",
		slog.String("sink", sink.Name()),
		slog.String("session_id", j.session.ID),
	)
}

type userRecorder struct {
	recorder *Recorder
	userID   string
}

func (u userRecorder) Record(session model.Session) {
	u.recorder.Enqueue(u.userID, session)
}
