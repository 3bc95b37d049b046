package chat

import (
	"errors"
	"log/slog"
	"time"
)

// SystemName attributes server-originated lines. Clients tell control lines
// apart from chat by this prefix convention, not by a structured envelope.
const SystemName = "SYSTEM"

// Dispatcher fans frames out to every registered session. Delivery is a
// non-blocking enqueue per recipient: a full outbox means the frame is dropped
// for that recipient only and counted, so one slow client never stalls the
// sender's read loop or other recipients.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Broadcast delivers the frame to every session except excludeID. Pass an
// empty excludeID to reach everyone. Per-recipient FIFO order follows each
// session's own outbox; there is no cross-recipient total ordering.
func (d *Dispatcher) Broadcast(f Frame, excludeID string) {
	start := time.Now()
	for _, s := range d.registry.Snapshot() {
		if s.ID == excludeID {
			continue
		}
		d.deliver(s, f.Line())
	}
	MessagesTotal.WithLabelValues("broadcast").Inc()
	BroadcastDuration.Observe(time.Since(start).Seconds())
}

// System broadcasts a server notice (join/leave/shutdown) to every session
// except excludeID.
func (d *Dispatcher) System(text string, excludeID string) {
	for _, s := range d.registry.Snapshot() {
		if s.ID == excludeID {
			continue
		}
		d.deliver(s, SystemName+": "+text)
	}
	MessagesTotal.WithLabelValues("system").Inc()
}

// SendTo delivers one line to a single session.
func (d *Dispatcher) SendTo(s *Session, line string) {
	d.deliver(s, line)
}

func (d *Dispatcher) deliver(s *Session, line string) {
	err := s.TryEnqueue(line)
	switch {
	case err == nil:
	case errors.Is(err, ErrOutboxFull):
		FramesDropped.Inc()
		d.logger.Warn("frame dropped for slow recipient", "id", s.ID, "username", s.Name)
	default:
		// Session is closing concurrently; nothing to deliver to.
	}
}
