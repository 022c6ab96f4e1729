package lab

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// stubSession blocks in Receive, like a live session with nothing to
// say, until a queued message arrives or the session is closed.
type stubSession struct {
	mu     sync.Mutex
	sent   [][]byte
	msgs   chan *genai.LiveServerMessage
	closed chan struct{}
	once   sync.Once
}

func newStubSession(msgs ...*genai.LiveServerMessage) *stubSession {
	s := &stubSession{
		msgs:   make(chan *genai.LiveServerMessage, len(msgs)),
		closed: make(chan struct{}),
	}
	for _, m := range msgs {
		s.msgs <- m
	}
	return s
}

func (s *stubSession) SendRealtimeInput(input genai.LiveRealtimeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if input.Media != nil {
		s.sent = append(s.sent, input.Media.Data)
	}
	return nil
}

func (s *stubSession) Receive() (*genai.LiveServerMessage, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-s.closed:
		return nil, errors.New("session closed")
	}
}

func (s *stubSession) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *stubSession) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *stubSession) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// stubConn serves queued client frames. Once drained it either fails
// like a disconnected browser or, with hang set, blocks until closed.
type stubConn struct {
	mu      sync.Mutex
	frames  [][]byte
	written [][]byte
	hang    bool
	closed  chan struct{}
	once    sync.Once
}

func newStubConn(hang bool, frames ...[]byte) *stubConn {
	return &stubConn{frames: frames, hang: hang, closed: make(chan struct{})}
}

func (c *stubConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	if len(c.frames) > 0 {
		f := c.frames[0]
		c.frames = c.frames[1:]
		c.mu.Unlock()
		return websocket.BinaryMessage, f, nil
	}
	c.mu.Unlock()

	if c.hang {
		<-c.closed
	}
	return 0, nil, errors.New("client gone")
}

func (c *stubConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *stubConn) writtenFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

func waitBridge(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not unwind")
		return nil
	}
}

func TestBridge_ClientDisconnectUnwindsSession(t *testing.T) {
	l := New(nil, 0, zerolog.Nop())
	session := newStubSession()
	conn := newStubConn(false, []byte("pcm-frame"))

	done := make(chan error, 1)
	go func() { done <- l.bridge(context.Background(), session, conn) }()

	err := waitBridge(t, done)
	require.Error(t, err)

	// The disconnect on one side must close the session so the reader
	// blocked on the other side returns too.
	assert.True(t, session.isClosed())

	sent := session.received()
	require.Len(t, sent, 1)
	assert.Equal(t, []byte("pcm-frame"), sent[0])
}

func TestBridge_ContextCancelUnwindsBothSides(t *testing.T) {
	l := New(nil, 0, zerolog.Nop())
	session := newStubSession()
	conn := newStubConn(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.bridge(ctx, session, conn) }()

	cancel()

	err := waitBridge(t, done)
	require.Error(t, err)
	assert.True(t, session.isClosed())
}

func TestBridge_ModelAudioForwardedToClient(t *testing.T) {
	l := New(nil, 0, zerolog.Nop())
	session := newStubSession(&genai.LiveServerMessage{
		ServerContent: &genai.LiveServerContent{
			ModelTurn: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte("model-audio")}},
				},
			},
		},
	})
	conn := newStubConn(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.bridge(ctx, session, conn) }()

	require.Eventually(t, func() bool {
		return len(conn.writtenFrames()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []byte("model-audio"), conn.writtenFrames()[0])

	cancel()
	waitBridge(t, done)
}
