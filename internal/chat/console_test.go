package chat

import (
	"net"
	"strings"
	"testing"
)

func TestConsole_ShutdownCommandStopsServer(t *testing.T) {
	srv := newTestServer(Config{Addr: "127.0.0.1:0"})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	alice := dialPeer(t, srv.Addr())
	alice.register(t, "alice")

	// Unknown commands and queries are ignored; only shutdown tears down.
	console := NewConsole(strings.NewReader("users\nhelp\nbogus\n\nSHUTDOWN\n"), srv, discardLogger())
	console.Run()

	alice.waitForPrefix(t, "SYSTEM: Server is shutting down")
	alice.expectClosed(t)

	conn, err := net.Dial("tcp", srv.Addr())
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected dial to fail after console shutdown")
	}
}

func TestConsole_InputEOFLeavesServerRunning(t *testing.T) {
	srv := newTestServer(Config{Addr: "127.0.0.1:0"})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)

	console := NewConsole(strings.NewReader("users\n"), srv, discardLogger())
	console.Run()

	// Console EOF is not a shutdown; the listener must still accept.
	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("expected server to keep accepting, dial failed: %v", err)
	}
	_ = conn.Close()
}
