package uidrivertest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mozilla/vpn-test-harness/framework/helpers"
	"github.com/mozilla/vpn-test-harness/uidriver"
)

// Server exposes an Inspector over a WebSocket, speaking the same line protocol as the client's
// inspector: one text message per command, one JSON envelope per reply.
type Server struct {
	inspector     uidriver.Inspector
	server        *httptest.Server
	upgrader      websocket.Upgrader
	notifications []string
	replyDelay    time.Duration
	conns         []*websocket.Conn
	lock          sync.Mutex
}

func NewServer(inspector uidriver.Inspector) *Server {
	s := &Server{inspector: inspector}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// URL returns the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

// SendBeforeEachReply makes the server write these raw messages before every reply, the way the
// client interleaves log notifications with command replies.
func (s *Server) SendBeforeEachReply(messages ...string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.notifications = messages
}

// DelayNextReply makes the server hold the reply to the next command for this long. The reply is
// computed before the delay.
func (s *Server) DelayNextReply(delay time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.replyDelay = delay
}

func (s *Server) Close() {
	s.lock.Lock()
	conns := s.conns
	s.conns = nil
	s.lock.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
	s.server.Close()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.lock.Lock()
	s.conns = append(s.conns, conn)
	s.lock.Unlock()
	defer conn.Close() //nolint:errcheck

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		fields := strings.Fields(string(data))
		if len(fields) == 0 {
			continue
		}
		resp, err := s.inspector.Command(fields[0], fields[1:]...)
		resp.Type = fields[0]
		if err != nil && resp.Error == "" {
			var ie *uidriver.InspectorError
			if errors.As(err, &ie) {
				resp.Error = ie.Message
			} else {
				resp.Error = err.Error()
			}
		}
		s.lock.Lock()
		notifications := s.notifications
		delay := s.replyDelay
		s.replyDelay = 0
		s.lock.Unlock()
		time.Sleep(delay)
		for _, n := range notifications {
			if conn.WriteMessage(websocket.TextMessage, []byte(n)) != nil {
				return
			}
		}
		out := helpers.AsJSON(resp)
		if conn.WriteMessage(websocket.TextMessage, out) != nil {
			return
		}
	}
}
