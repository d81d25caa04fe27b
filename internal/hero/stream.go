package hero

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/kydev/portfolio/internal/particles"
	"github.com/kydev/portfolio/internal/session"
	"github.com/kydev/portfolio/internal/typewriter"
)

const (
	helloTimeout = 10 * time.Second
	writeTimeout = 5 * time.Second
	maxSurface   = 10000
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// ClientMessage is sent by the page: a resize hello on connect, then a
// resize whenever the viewport changes.
type ClientMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Message is sent to the page.
type Message struct {
	Type       string               `json:"type"` // "frame", "typewriter" or "error"
	Frame      *particles.Frame     `json:"frame,omitempty"`
	Typewriter *typewriter.Snapshot `json:"typewriter,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Streamer serves the hero WebSocket for sessions.
type Streamer struct {
	opts  Options
	roles RolesFunc
}

func NewStreamer(opts Options, roles RolesFunc) *Streamer {
	return &Streamer{opts: opts, roles: roles}
}

// Serve upgrades the request and streams sess's hero effects until the
// socket or the session closes. The effects are disposed on return.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hero: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	hello, err := readResize(conn, helloTimeout)
	if err != nil {
		log.Printf("hero: session %s: %v", sess.ID, err)
		writeError(conn, err.Error())
		return
	}

	out := newMailbox()
	eff := Start(s.opts, sess.Store, s.roles, hello.Width, hello.Height, out)
	detach := sess.Attach(eff)
	defer detach()
	defer eff.Dispose()

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		out.drain(conn, readerDone, sess.Done())
		// Unblock the reader when the writer stops first.
		conn.Close()
	}()

	for {
		msg, err := readResize(conn, 0)
		if err != nil {
			if websocket.IsUnexpectedCloseError(errors.Cause(err), websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hero: session %s: read: %v", sess.ID, err)
			}
			break
		}
		eff.Resize(msg.Width, msg.Height)
	}
	close(readerDone)
	<-writerDone
}

func readResize(conn *websocket.Conn, timeout time.Duration) (ClientMessage, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return ClientMessage{}, err
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return ClientMessage{}, err
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return ClientMessage{}, errors.Wrap(err, "invalid message format")
		}
		if msg.Type != "resize" {
			if timeout > 0 {
				return ClientMessage{}, errors.Errorf("expected resize hello, got %q", msg.Type)
			}
			continue
		}
		if msg.Width <= 0 || msg.Height <= 0 || msg.Width > maxSurface || msg.Height > maxSurface {
			if timeout > 0 {
				return ClientMessage{}, errors.Errorf("invalid surface %gx%g", msg.Width, msg.Height)
			}
			// A minimized window reports 0x0; keep the last bounds.
			continue
		}
		return msg, nil
	}
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(Message{Type: "error", Error: message}); err != nil {
		log.Printf("hero: websocket write error: %v", err)
	}
}

// mailbox keeps only the latest frame and typewriter state. Each message
// carries complete state, so a slow client skips intermediate ones instead of
// stalling the effects.
type mailbox struct {
	mu     sync.Mutex
	frame  *particles.Frame
	text   *typewriter.Snapshot
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) Frame(f particles.Frame) {
	m.mu.Lock()
	m.frame = &f
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) Typewriter(s typewriter.Snapshot) {
	m.mu.Lock()
	m.text = &s
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) take() (*particles.Frame, *typewriter.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, s := m.frame, m.text
	m.frame, m.text = nil, nil
	return f, s
}

func (m *mailbox) drain(conn *websocket.Conn, stop, sessionDone <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-sessionDone:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"),
				time.Now().Add(writeTimeout))
			return
		case <-m.notify:
		}
		frame, text := m.take()
		if text != nil {
			if err := write(conn, Message{Type: "typewriter", Typewriter: text}); err != nil {
				return
			}
		}
		if frame != nil {
			if err := write(conn, Message{Type: "frame", Frame: frame}); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Printf("hero: websocket write: %v", err)
		}
		return err
	}
	return nil
}
