package chat

import (
	"net"
	"sync"
)

// Frame is a single chat line attributed to its sender. On the wire it is one
// newline-terminated UTF-8 line; there is no binary framing.
type Frame struct {
	Sender string
	Text   string
}

func (f Frame) Line() string {
	return f.Sender + ": " + f.Text
}

// Session is one registered, currently-connected client. The read loop and the
// outbound writer for a session run as independent goroutines; the outbox is
// the only link between them.
type Session struct {
	ID   string
	Name string // set once at registration, not required to be unique
	Conn net.Conn

	mu     sync.Mutex
	out    chan string
	closed bool
}

func NewSession(id string, conn net.Conn, outboundBuffer int) *Session {
	if outboundBuffer <= 0 {
		outboundBuffer = 32
	}
	return &Session{
		ID:   id,
		Conn: conn,
		out:  make(chan string, outboundBuffer),
	}
}

// TryEnqueue attempts a non-blocking delivery to the session's outbox.
// Returns ErrSessionClosed once CloseOutbound has been called, or
// ErrOutboxFull when the recipient is too slow to drain its channel.
func (s *Session) TryEnqueue(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.out <- line:
		return nil
	default:
		return ErrOutboxFull
	}
}

// CloseOutbound closes the outbox exactly once. After it returns no further
// line can be enqueued; the writer goroutine drains what is buffered and
// closes the connection.
func (s *Session) CloseOutbound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}

// Outbound exposes the outbox for the writer goroutine.
func (s *Session) Outbound() <-chan string {
	return s.out
}

var (
	ErrDuplicateID   = errorString("duplicate_session_id")
	ErrSessionClosed = errorString("session_closed")
	ErrOutboxFull    = errorString("outbox_full")
	ErrFrameTooLong  = errorString("frame_too_long")
)

type errorString string

func (e errorString) Error() string { return string(e) }
