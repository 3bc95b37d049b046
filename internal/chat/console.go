package chat

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
)

// Console reads operator commands from the server's local input, not the
// network. The input is injectable so tests can drive it with a reader.
type Console struct {
	in     io.Reader
	server *Server
	logger *slog.Logger
}

func NewConsole(in io.Reader, server *Server, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{in: in, server: server, logger: logger}
}

// Run blocks reading operator commands until `shutdown` is received or the
// input ends. `shutdown` stops the whole server; any other input leaves the
// server state untouched.
func (c *Console) Run() {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "":
			continue
		case "shutdown":
			c.server.Stop()
			return
		case "users":
			names := c.server.Registry().Names()
			c.logger.Info("online users", "count", len(names), "users", strings.Join(names, ","))
		case "help":
			c.logger.Info("console commands: shutdown, users, help")
		default:
			c.logger.Warn("unknown console command", "command", cmd)
		}
	}
}
