// Package alerter delivers session-complete notifications. There is one
// notifier per process, created by Init and released by Close.
package alerter

import (
	"log/slog"
	"sync"

	"pomodoro/timer/internal/model"
)

// Notifier logs completion alerts and fans them out to listeners.
type Notifier struct {
	mu        sync.Mutex
	log       *slog.Logger
	listeners []chan model.Alert
	closed    bool
}

var (
	globalMu sync.Mutex
	global   *Notifier
)

// Init installs the process-wide notifier, replacing and closing any
// previous one.
func Init(log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	n := &Notifier{log: log}

	globalMu.Lock()
	previous := global
	global = n
	globalMu.Unlock()

	if previous != nil {
		previous.close()
	}
	return n
}

// Get returns the process-wide notifier. Before Init, or after Close, it
// returns a notifier that drops every alert.
func Get() *Notifier {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return &Notifier{closed: true}
	}
	return global
}

// Close releases the process-wide notifier and closes its listeners.
func Close() {
	globalMu.Lock()
	n := global
	global = nil
	globalMu.Unlock()

	if n != nil {
		n.close()
	}
}

// Alert records the alert and forwards it without blocking.
func (n *Notifier) Alert(alert model.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.log.Info("timer alert",
		slog.String("event", alert.EventType),
		slog.String("mode", string(alert.Mode)),
		slog.String("user_id", alert.UserID),
		slog.Time("at", alert.At),
	)
	for _, ch := range n.listeners {
		select {
		case ch <- alert:
		default:
			n.log.Warn("alert listener is full, dropping alert", slog.String("mode", string(alert.Mode)))
		}
	}
}

// Listen registers a listener channel. It is closed when the notifier closes.
func (n *Notifier) Listen(buffer int) <-chan model.Alert {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan model.Alert, buffer)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch
	}
	n.listeners = append(n.listeners, ch)
	return ch
}

func (n *Notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.listeners {
		close(ch)
	}
	n.listeners = nil
}
