package chat

import (
	"bufio"
	"net"
)

// StartOutboundWriter drains the session outbox onto the connection in its own
// goroutine, so a peer slow to send never blocks delivery to it and vice
// versa. The goroutine exits when the outbox is closed or a write fails, and
// closes the connection on the way out so the read loop unblocks too.
func StartOutboundWriter(conn net.Conn, out <-chan string) {
	go func() {
		defer func() {
			_ = conn.Close()
		}()
		w := bufio.NewWriter(conn)
		for msg := range out {
			// Best-effort. If the connection breaks, just stop the writer.
			if _, err := w.WriteString(msg + "\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()
}
