package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MockConnection is an in-memory Connection for tests. ReadMessage blocks until
// a frame is pushed with Push or the connection is closed.
type MockConnection struct {
	mu      sync.Mutex
	written []MockMessage
	closed  bool

	incoming  chan MockMessage
	closeOnce sync.Once
	closedCh  chan struct{}

	RemoteAddress string
}

// MockMessage represents a frame seen by the mock
type MockMessage struct {
	Type int
	Data []byte
}

var errMockClosed = errors.New("connection closed")

// NewMockConnection creates a new mock connection
func NewMockConnection() *MockConnection {
	return &MockConnection{
		incoming:      make(chan MockMessage, 16),
		closedCh:      make(chan struct{}),
		RemoteAddress: "127.0.0.1:8080",
	}
}

// Push queues a frame for ReadMessage
func (m *MockConnection) Push(messageType int, data []byte) {
	m.incoming <- MockMessage{Type: messageType, Data: data}
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errMockClosed
	}
	m.written = append(m.written, MockMessage{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-m.incoming:
		return msg.Type, msg.Data, nil
	case <-m.closedCh:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
}

func (m *MockConnection) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.closedCh)
	})
	return nil
}

func (m *MockConnection) SetReadDeadline(time.Time) error  { return nil }
func (m *MockConnection) SetWriteDeadline(time.Time) error { return nil }
func (m *MockConnection) SetReadLimit(int64)               {}
func (m *MockConnection) SetPongHandler(func(string) error) {}
func (m *MockConnection) RemoteAddr() string               { return m.RemoteAddress }

// TextMessages returns the text frames written so far
func (m *MockConnection) TextMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, msg := range m.written {
		if msg.Type == websocket.TextMessage {
			out = append(out, msg.Data)
		}
	}
	return out
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
