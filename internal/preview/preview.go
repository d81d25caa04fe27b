// Package preview renders the hero effects in a terminal. Particle frames are
// scaled from surface pixels onto character cells.
package preview

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/kydev/portfolio/internal/hero"
	"github.com/kydev/portfolio/internal/locale"
	"github.com/kydev/portfolio/internal/particles"
	"github.com/kydev/portfolio/internal/prefs"
	"github.com/kydev/portfolio/internal/typewriter"
)

// Surface pixels per terminal cell.
const (
	CellWidth  = 8
	CellHeight = 16
)

// Preview draws one view's hero banner onto a tcell screen. It implements
// hero.Sink.
type Preview struct {
	screen tcell.Screen
	store  *prefs.Store

	mu    sync.Mutex
	frame particles.Frame
	text  string
}

func New(screen tcell.Screen, store *prefs.Store) *Preview {
	return &Preview{screen: screen, store: store}
}

// Surface returns the simulation size in pixels for a cols x rows terminal.
// The last row is kept for the typewriter line.
func Surface(cols, rows int) (w, h float64) {
	if rows > 1 {
		rows--
	}
	return float64(cols * CellWidth), float64(rows * CellHeight)
}

func (p *Preview) Frame(f particles.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = f
	p.draw()
}

func (p *Preview) Typewriter(s typewriter.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = s.Text
	p.draw()
}

// Run starts the effects and handles input until q, Esc or Ctrl-C, or until
// ctx is done. Both effects are disposed before it returns. The screen must
// already be initialized; the caller finalizes it.
func (p *Preview) Run(ctx context.Context, opts hero.Options, roles hero.RolesFunc) error {
	w, h := p.surface()
	eff := hero.Start(opts, p.store, roles, w, h, p)
	defer eff.Dispose()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go p.screen.ChannelEvents(events, quit)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if p.handle(ev, eff) {
				return nil
			}
		}
	}
}

func (p *Preview) surface() (float64, float64) {
	return Surface(p.screen.Size())
}

// handle reacts to one terminal event and reports whether to quit.
func (p *Preview) handle(ev tcell.Event, eff *hero.Effects) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case 't':
				p.store.ToggleTheme()
				p.redraw()
			case 'l':
				p.store.SetLocale(nextLocale(p.store.Snapshot().Locale))
			}
		}
	case *tcell.EventResize:
		p.screen.Sync()
		eff.Resize(p.surface())
	}
	return false
}

func nextLocale(cur locale.Locale) locale.Locale {
	all := locale.All()
	for i, l := range all {
		if l == cur {
			return all[(i+1)%len(all)]
		}
	}
	return locale.Default
}

func (p *Preview) redraw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw()
}

// draw repaints the whole screen. p.mu must be held.
func (p *Preview) draw() {
	st := p.store.Snapshot()
	base := tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	if st.Theme.IsDark() {
		base = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	}
	p.screen.SetStyle(base)
	p.screen.Clear()

	cols, rows := p.screen.Size()
	for _, l := range p.frame.Lines {
		style := base.Foreground(cssColor(l.Color))
		plotLine(l.X1/CellWidth, l.Y1/CellHeight, l.X2/CellWidth, l.Y2/CellHeight, func(x, y int) {
			if x >= 0 && y >= 0 && x < cols && y < rows-1 {
				p.screen.SetContent(x, y, '·', nil, style)
			}
		})
	}
	for _, d := range p.frame.Discs {
		x, y := cell(d.X, CellWidth, cols), cell(d.Y, CellHeight, rows-1)
		p.screen.SetContent(x, y, '●', nil, base.Foreground(cssColor(d.Color)))
	}

	line := p.text + "|"
	start := (cols - len([]rune(line))) / 2
	if start < 0 {
		start = 0
	}
	for _, r := range line {
		if start >= cols {
			break
		}
		p.screen.SetContent(start, rows-1, r, nil, base.Bold(true))
		start++
	}
	p.screen.Show()
}

// cell maps a pixel coordinate onto a cell index in [0, n).
func cell(v float64, size, n int) int {
	i := int(v / float64(size))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// plotLine walks the cells between two points with Bresenham's algorithm.
func plotLine(x1, y1, x2, y2 float64, plot func(x, y int)) {
	x0, y0 := int(math.Floor(x1)), int(math.Floor(y1))
	xe, ye := int(math.Floor(x2)), int(math.Floor(y2))
	dx, dy := abs(xe-x0), -abs(ye-y0)
	sx, sy := 1, 1
	if x0 > xe {
		sx = -1
	}
	if y0 > ye {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == xe && y0 == ye {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// cssColor parses the rgba() strings particles.Color.CSS produces.
func cssColor(s string) tcell.Color {
	var r, g, b int32
	var a float64
	if _, err := fmt.Sscanf(strings.ReplaceAll(s, " ", ""), "rgba(%d,%d,%d,%g)", &r, &g, &b, &a); err != nil {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(r, g, b)
}
