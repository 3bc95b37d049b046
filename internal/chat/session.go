package chat

import (
	"bufio"
	"errors"
	"regexp"
	"strings"
	"time"
)

var whisperRe = regexp.MustCompile(`^/whisper\s+(\S+)\s+(.+)$`)

// handleSession drives one connection through its lifecycle: name handshake,
// registration, read loop, teardown. It runs in its own goroutine; the
// outbound writer for the same session runs in another.
func (s *Server) handleSession(sess *Session) {
	defer func() {
		_ = sess.Conn.Close()
	}()

	StartOutboundWriter(sess.Conn, sess.Outbound())

	scanner := bufio.NewScanner(sess.Conn)
	// The initial capacity must not exceed the cap: the scanner only reports
	// ErrTooLong once its buffer is full.
	initial := 1024
	if s.cfg.MaxLineBytes < initial {
		initial = s.cfg.MaxLineBytes
	}
	scanner.Buffer(make([]byte, 0, initial), s.cfg.MaxLineBytes)

	if !s.awaitName(sess, scanner) {
		sess.CloseOutbound()
		return
	}

	if err := s.registry.Register(sess); err != nil {
		// Connection IDs are unique per accepted socket, so a collision is an
		// internal invariant failure. Drop the session and keep serving.
		s.logger.Error("registration failed", "id", sess.ID, "error", err)
		sess.CloseOutbound()
		return
	}

	s.dispatch.System(sess.Name+" has joined the chat", sess.ID)
	s.dispatch.SendTo(sess, SystemName+": Welcome "+sess.Name+
		"! Type /help for commands. Currently online: "+strings.Join(s.registry.Names(), ","))

	s.readLoop(sess, scanner)

	if s.registry.Unregister(sess.ID) {
		s.dispatch.System(sess.Name+" has left the chat", "")
	}
}

// awaitName prompts until the client supplies a non-empty display name.
// Returns false when the connection ends before a name arrives.
func (s *Server) awaitName(sess *Session, scanner *bufio.Scanner) bool {
	for {
		s.dispatch.SendTo(sess, SystemName+": Welcome to the chat server! Enter your username:")
		if !scanner.Scan() {
			return false
		}
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		sess.Name = name
		return true
	}
}

func (s *Server) readLoop(sess *Session, scanner *bufio.Scanner) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if quit := s.handleCommand(sess, line); quit {
				return
			}
		default:
			s.dispatch.Broadcast(Frame{Sender: sess.Name, Text: line}, sess.ID)
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			// Protocol violation: the peer exceeded the frame cap. Close this
			// session only; everyone else is unaffected.
			s.logger.Warn("frame exceeds size cap, dropping session",
				"id", sess.ID, "username", sess.Name, "max_bytes", s.cfg.MaxLineBytes,
				"error", ErrFrameTooLong)
			return
		}
		s.logger.Info("session read failed", "id", sess.ID, "username", sess.Name, "error", err)
	}
}

// handleCommand processes a slash command. The returned flag is true when the
// session asked to leave.
func (s *Server) handleCommand(sess *Session, line string) bool {
	MessagesTotal.WithLabelValues("command").Inc()

	cmd := strings.ToLower(strings.Fields(line)[0])
	switch {
	case cmd == "/help":
		s.dispatch.SendTo(sess, SystemName+": Commands: /help /users /whisper <username> <message> /time /quit")
	case cmd == "/users":
		s.dispatch.SendTo(sess, "USERS: "+strings.Join(s.registry.Names(), ","))
	case cmd == "/time":
		s.dispatch.SendTo(sess, "TIME: "+time.Now().Format("2006-01-02 15:04:05"))
	case cmd == "/quit":
		s.dispatch.SendTo(sess, SystemName+": Goodbye!")
		return true
	case strings.HasPrefix(cmd, "/whisper"):
		s.handleWhisper(sess, line)
	default:
		s.dispatch.SendTo(sess, "ERR unknown command, try /help")
	}
	return false
}

// handleWhisper sends a private message to every session registered under the
// target name, except the sender. Names are not unique, so one whisper may
// reach several sessions.
func (s *Server) handleWhisper(sess *Session, line string) {
	m := whisperRe.FindStringSubmatch(line)
	if m == nil {
		s.dispatch.SendTo(sess, "ERR usage: /whisper <username> <message>")
		return
	}
	to, text := m[1], strings.TrimSpace(m[2])

	delivered := 0
	for _, target := range s.registry.ByName(to) {
		if target.ID == sess.ID {
			continue
		}
		s.dispatch.SendTo(target, "WHISPER from "+sess.Name+": "+text)
		delivered++
	}
	if delivered == 0 {
		s.dispatch.SendTo(sess, "ERR user not found: "+to)
		return
	}
	MessagesTotal.WithLabelValues("whisper").Inc()
	s.dispatch.SendTo(sess, SystemName+": Whisper sent to "+to)
}
