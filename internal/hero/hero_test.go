package hero

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kydev/portfolio/internal/clock"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/particles"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/session"
	"github.com/kydev/portfolio/internal/typewriter"
)

var testRoles = map[locale.Locale][]string{
	locale.ID: {"Pengembang Web"},
	locale.EN: {"Web Developer", "Purchasing Staff"},
	locale.JA: {"Web開発者", "購買スタッフ"},
}

func rolesFor(l locale.Locale) []string { return testRoles[l] }

type recordingSink struct {
	mu     sync.Mutex
	frames []particles.Frame
	texts  []typewriter.Snapshot
}

func (s *recordingSink) Frame(f particles.Frame) {
	s.mu.Lock()
	s.frames = append(s.frames, f)
	s.mu.Unlock()
}

func (s *recordingSink) Typewriter(t typewriter.Snapshot) {
	s.mu.Lock()
	s.texts = append(s.texts, t)
	s.mu.Unlock()
}

func (s *recordingSink) last() (particles.Frame, typewriter.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1], s.texts[len(s.texts)-1], len(s.frames)
}

func testOptions(clk clock.Clock) Options {
	return Options{
		Clock:         clk,
		Timing:        typewriter.DefaultTiming(),
		FrameInterval: 33 * time.Millisecond,
		Rand:          rand.New(rand.NewSource(1)),
	}
}

func TestEffectsFollowState(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	store := prefs.NewStore(prefs.State{Locale: locale.EN, Theme: prefs.Light})
	sink := &recordingSink{}

	eff := Start(testOptions(clk), store, rolesFor, 1024, 600, sink)
	frame, text, _ := sink.last()
	if len(frame.Discs) != 60 {
		t.Errorf("wide surface drew %d particles, want 60", len(frame.Discs))
	}
	if !strings.HasPrefix(frame.Discs[0].Color, "rgba(37, 99, 235") {
		t.Errorf("light particle color = %q", frame.Discs[0].Color)
	}
	if text.Text != "" {
		t.Errorf("initial text = %q", text.Text)
	}

	clk.Advance(3 * 80 * time.Millisecond)
	if got := eff.Typewriter().Text; got != "Web" {
		t.Fatalf("after three ticks text = %q", got)
	}

	before := frame.Discs[0]
	store.ToggleTheme()
	if _, err := store.SetLocale(locale.JA); err != nil {
		t.Fatal(err)
	}
	if got := eff.Typewriter().Text; got != "Web" {
		t.Errorf("locale switch changed typed prefix: %q", got)
	}
	clk.Advance(80 * time.Millisecond)
	if got := eff.Typewriter().Text; got != "Web開" {
		t.Errorf("after switch text = %q, want %q", got, "Web開")
	}

	frame, _, _ = sink.last()
	if !strings.HasPrefix(frame.Discs[0].Color, "rgba(96, 165, 250") {
		t.Errorf("dark particle color = %q", frame.Discs[0].Color)
	}
	if frame.Discs[0].R != before.R {
		t.Error("theme switch reseeded particles")
	}

	eff.Dispose()
	_, _, n := sink.last()
	clk.Advance(time.Second)
	if _, _, m := sink.last(); m != n {
		t.Errorf("%d frames drawn after Dispose", m-n)
	}
	if clk.Pending() != 0 {
		t.Errorf("%d timers pending after Dispose", clk.Pending())
	}
	store.ToggleTheme()
	eff.Dispose()
}

func TestEffectsNarrowSurface(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	sink := &recordingSink{}
	eff := Start(testOptions(clk), prefs.NewStore(prefs.Default()), rolesFor, 500, 800, sink)
	defer eff.Dispose()
	frame, _, _ := sink.last()
	if len(frame.Discs) != 30 {
		t.Errorf("narrow surface drew %d particles, want 30", len(frame.Discs))
	}
}

func TestConcurrentThemeTogglesKeepPaletteCurrent(t *testing.T) {
	for run := 0; run < 50; run++ {
		clk := clock.NewFake(time.Unix(0, 0))
		store := prefs.NewStore(prefs.Default())
		sink := &recordingSink{}
		eff := Start(testOptions(clk), store, rolesFor, 1024, 600, sink)

		// A slow co-subscriber delays delivery of dark updates.
		cancel := store.Subscribe(func(st prefs.State) {
			if st.Theme.IsDark() {
				time.Sleep(100 * time.Microsecond)
			}
		})

		var wg sync.WaitGroup
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				store.ToggleTheme()
			}()
		}
		wg.Wait()

		clk.Advance(33 * time.Millisecond)
		frame, _, _ := sink.last()
		want := "rgba(37, 99, 235"
		if store.Snapshot().Theme.IsDark() {
			want = "rgba(96, 165, 250"
		}
		if !strings.HasPrefix(frame.Discs[0].Color, want) {
			t.Fatalf("run %d: store=%s but particles drawn %q", run, store.Snapshot().Theme, frame.Discs[0].Color)
		}
		cancel()
		eff.Dispose()
	}
}

type streamFixture struct {
	clk  *clock.Fake
	reg  *session.Registry
	sess *session.Session
	srv  *httptest.Server
}

func newStreamFixture(t *testing.T, st prefs.State) *streamFixture {
	t.Helper()
	clk := clock.NewFake(time.Unix(0, 0))
	reg := session.NewRegistry(clk, time.Hour)
	sess, err := reg.Create(st)
	if err != nil {
		t.Fatal(err)
	}
	streamer := NewStreamer(testOptions(clk), rolesFor)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		streamer.Serve(w, r, sess)
	}))
	t.Cleanup(srv.Close)
	return &streamFixture{clk: clk, reg: reg, sess: sess, srv: srv}
}

func (f *streamFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	return conn
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamSendsFramesAndText(t *testing.T) {
	f := newStreamFixture(t, prefs.State{Locale: locale.EN, Theme: prefs.Light})
	conn := f.dial(t)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "resize", Width: 1280, Height: 720}); err != nil {
		t.Fatalf("write: %v", err)
	}

	first := readUntil(t, conn, func(m Message) bool { return m.Type == "frame" })
	if first.Frame.Width != 1280 || len(first.Frame.Discs) != 60 {
		t.Fatalf("first frame %gx%g with %d discs", first.Frame.Width, first.Frame.Height, len(first.Frame.Discs))
	}
	waitFor(t, "attach", func() bool { return f.sess.Attached() == 1 })

	f.clk.Advance(80 * time.Millisecond)
	msg := readUntil(t, conn, func(m Message) bool { return m.Type == "typewriter" && m.Typewriter.Text != "" })
	if msg.Typewriter.Text != "W" {
		t.Errorf("first typed text = %q, want %q", msg.Typewriter.Text, "W")
	}

	f.sess.Store.ToggleTheme()
	f.clk.Advance(33 * time.Millisecond)
	readUntil(t, conn, func(m Message) bool {
		return m.Type == "frame" && strings.HasPrefix(m.Frame.Discs[0].Color, "rgba(96, 165, 250")
	})

	if err := conn.WriteJSON(ClientMessage{Type: "resize", Width: 400, Height: 300}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The resize is applied asynchronously; keep advancing until a frame shows it.
	deadline := time.Now().Add(5 * time.Second)
	for {
		f.clk.Advance(33 * time.Millisecond)
		m := readUntil(t, conn, func(m Message) bool { return m.Type == "frame" })
		if m.Frame.Width == 400 {
			if len(m.Frame.Discs) != 60 {
				t.Errorf("resize changed particle count to %d", len(m.Frame.Discs))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("resize never reached the stream")
		}
	}

	conn.Close()
	waitFor(t, "dispose on close", func() bool { return f.sess.Attached() == 0 && f.clk.Pending() == 0 })
}

func TestStreamRejectsBadHello(t *testing.T) {
	f := newStreamFixture(t, prefs.Default())
	conn := f.dial(t)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, func(Message) bool { return true })
	if msg.Type != "error" || !strings.Contains(msg.Error, "resize") {
		t.Errorf("got %+v, want resize error", msg)
	}
	if f.clk.Pending() != 0 {
		t.Error("effects started for a rejected stream")
	}
}

func TestStreamEndsWithSession(t *testing.T) {
	f := newStreamFixture(t, prefs.Default())
	conn := f.dial(t)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: "resize", Width: 800, Height: 600}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m Message) bool { return m.Type == "frame" })
	waitFor(t, "attach", func() bool { return f.sess.Attached() == 1 })

	f.reg.Remove(f.sess.ID)
	if f.clk.Pending() != 0 {
		t.Errorf("%d timers pending after session removal", f.clk.Pending())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("read error = %v, want going-away close", err)
		}
		break
	}
}
