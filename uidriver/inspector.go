package uidriver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mozilla/vpn-test-harness/framework"
	"github.com/mozilla/vpn-test-harness/framework/helpers"
	"github.com/mozilla/vpn-test-harness/servicedef"
)

// Inspector sends one command to the application under test and returns its reply.
type Inspector interface {
	Command(name string, args ...string) (servicedef.InspectorResponse, error)
}

// InspectorError is a command the application rejected.
type InspectorError struct {
	Command string
	Message string
}

func (e *InspectorError) Error() string {
	return fmt.Sprintf("inspector command %q failed: %s", e.Command, e.Message)
}

// InspectorClient is an Inspector that talks to the client's inspector WebSocket. Commands are
// sent one at a time; each waits for the reply whose type matches the command. A single reader
// goroutine owns the socket, so a command that times out leaves the connection usable: its late
// reply is discarded when it arrives.
type InspectorClient struct {
	url            string
	conn           *websocket.Conn
	commandTimeout time.Duration
	logger         framework.Logger
	messages       chan []byte
	readerDone     chan struct{}
	readErr        error
	closing        chan struct{}
	closeOnce      sync.Once
	abandoned      []string
	lock           sync.Mutex
}

// DialInspector connects to the inspector, retrying until dialTimeout elapses, since the
// application may still be starting.
func DialInspector(
	url string,
	dialTimeout time.Duration,
	commandTimeout time.Duration,
	logger framework.Logger,
) (*InspectorClient, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	dialer := websocket.Dialer{HandshakeTimeout: time.Second * 5}
	conn, err := helpers.Poll("inspector at "+url, func() (*websocket.Conn, bool, error) {
		conn, resp, err := dialer.Dial(url, http.Header{})
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			logger.Printf("Inspector not reachable yet: %s", err)
			return nil, false, err
		}
		return conn, true, nil
	}, time.Millisecond*250, dialTimeout)
	if err != nil {
		return nil, err
	}
	logger.Printf("Connected to inspector at %s", url)
	c := &InspectorClient{
		url:            url,
		conn:           conn,
		commandTimeout: commandTimeout,
		logger:         logger,
		messages:       make(chan []byte, 100),
		readerDone:     make(chan struct{}),
		closing:        make(chan struct{}),
	}
	go c.readMessages()
	return c, nil
}

func (c *InspectorClient) URL() string {
	return c.url
}

func (c *InspectorClient) readMessages() {
	defer close(c.readerDone)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		select {
		case c.messages <- data:
		case <-c.closing:
			return
		}
	}
}

func (c *InspectorClient) Command(name string, args ...string) (servicedef.InspectorResponse, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	line := strings.Join(append([]string{name}, args...), " ")
	deadline := time.Now().Add(c.commandTimeout)
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return servicedef.InspectorResponse{}, fmt.Errorf("failed to send inspector command %q: %w", name, err)
	}
	for {
		data, err := c.nextMessage(deadline)
		if err != nil {
			return servicedef.InspectorResponse{}, fmt.Errorf("no reply to inspector command %q: %w", name, err)
		}
		if data == nil {
			// the reply may still come; the next command must not mistake it for its own
			c.abandoned = append(c.abandoned, name)
			return servicedef.InspectorResponse{}, fmt.Errorf("no reply to inspector command %q within %s",
				name, c.commandTimeout)
		}
		var resp servicedef.InspectorResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Printf("Ignoring malformed inspector message: %s", string(data))
			continue
		}
		if len(c.abandoned) > 0 && resp.Type == c.abandoned[0] {
			c.logger.Printf("Discarding late reply to inspector command %q", resp.Type)
			c.abandoned = c.abandoned[1:]
			continue
		}
		if resp.Type != name {
			// notifications such as log lines arrive on the same socket
			continue
		}
		if resp.Error != "" {
			return resp, &InspectorError{Command: line, Message: resp.Error}
		}
		return resp, nil
	}
}

// nextMessage returns nil with no error if the deadline passes first, or an error if the
// connection is gone.
func (c *InspectorClient) nextMessage(deadline time.Time) ([]byte, error) {
	select {
	case data := <-c.messages:
		return data, nil
	default:
	}
	select {
	case <-c.readerDone:
		if c.readErr == nil {
			return nil, errors.New("inspector connection closed")
		}
		return nil, c.readErr
	default:
	}
	m := helpers.TryReceive(c.messages, time.Until(deadline))
	if !m.IsDefined() {
		select {
		case <-c.readerDone:
			return c.nextMessage(deadline)
		default:
			return nil, nil
		}
	}
	return m.Value(), nil
}

// Close sends a close frame and closes the connection.
func (c *InspectorClient) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
