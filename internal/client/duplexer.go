// Package client implements the terminal chat client: two goroutines sharing
// one socket, one rendering incoming lines, one sending operator input.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// errOperatorQuit marks a locally initiated exit (/quit or console EOF).
var errOperatorQuit = errors.New("operator quit")

// Duplexer pairs an inbound goroutine (socket -> display) with an outbound
// goroutine (operator input -> socket). Either side ending terminates the
// other; there is no partial-duplex degraded mode.
type Duplexer struct {
	conn    net.Conn
	console io.Reader
	display io.Writer
}

func NewDuplexer(conn net.Conn, console io.Reader, display io.Writer) *Duplexer {
	return &Duplexer{conn: conn, console: console, display: display}
}

// Run drives both sides until the connection closes or the operator quits,
// then returns nil for either of those clean endings. Any other failure is
// returned as-is.
func (d *Duplexer) Run(ctx context.Context) error {
	// Operator input is pumped through a channel so the outbound side can be
	// cancelled even while a console read is pending. The pump goroutine
	// itself ends with the process.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(d.console)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Closing the socket is the only way to unblock the inbound reader.
		<-ctx.Done()
		_ = d.conn.Close()
		return nil
	})

	g.Go(func() error {
		return d.pumpInbound()
	})

	g.Go(func() error {
		return d.pumpOutbound(ctx, lines)
	})

	err := g.Wait()
	if errors.Is(err, io.EOF) || errors.Is(err, errOperatorQuit) {
		return nil
	}
	return err
}

// pumpInbound renders every socket line to the operator. It reports io.EOF
// when the peer closes the connection so Run can treat that as a clean end.
func (d *Duplexer) pumpInbound() error {
	scanner := bufio.NewScanner(d.conn)
	for scanner.Scan() {
		fmt.Fprintf(d.display, "[%s] %s\n", time.Now().Format("15:04:05"), scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

// pumpOutbound writes operator lines to the socket. A local /quit is sent to
// the server first so it can say goodbye, then the duplexer shuts down.
func (d *Duplexer) pumpOutbound(ctx context.Context, lines <-chan string) error {
	w := bufio.NewWriter(d.conn)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return errOperatorQuit
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, err := w.WriteString(line + "\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if strings.EqualFold(line, "/quit") {
				return errOperatorQuit
			}
		case <-ctx.Done():
			return nil
		}
	}
}
