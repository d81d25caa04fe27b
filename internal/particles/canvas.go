package particles

import (
	"fmt"
	"math"
	"strconv"

	"github.com/kydev/portfolio/internal/prefs"
)

// Color is an sRGB color with alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// WithAlpha returns c with alpha a.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// CSS formats c as an rgba() value.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(round(c.A, 3), 'f', -1, 64))
}

// Palette is the theme-dependent styling of a frame.
type Palette struct {
	Particle  Color
	Link      Color
	LinkWidth float64
}

var (
	darkPalette = Palette{
		Particle:  Color{R: 96, G: 165, B: 250, A: 0.6},
		Link:      Color{R: 96, G: 165, B: 250},
		LinkWidth: 0.5,
	}
	lightPalette = Palette{
		Particle:  Color{R: 37, G: 99, B: 235, A: 0.5},
		Link:      Color{R: 37, G: 99, B: 235},
		LinkWidth: 0.5,
	}
)

// PaletteFor returns the palette for theme t.
func PaletteFor(t prefs.Theme) Palette {
	if t.IsDark() {
		return darkPalette
	}
	return lightPalette
}

// Canvas is a drawing surface.
type Canvas interface {
	Clear(w, h float64)
	Disc(x, y, r float64, c Color)
	Line(x1, y1, x2, y2, width float64, c Color)
}

// Disc is a recorded filled circle.
type Disc struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Color string  `json:"c"`
}

// Line is a recorded stroke.
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Width float64 `json:"w"`
	Color string  `json:"c"`
}

// Frame is a serializable draw list.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Discs  []Disc  `json:"discs"`
	Lines  []Line  `json:"lines"`
}

// Recorder is a Canvas that captures draw calls into a Frame.
type Recorder struct {
	frame Frame
}

func (r *Recorder) Clear(w, h float64) {
	r.frame = Frame{Width: w, Height: h, Discs: r.frame.Discs[:0], Lines: r.frame.Lines[:0]}
}

func (r *Recorder) Disc(x, y, rad float64, c Color) {
	r.frame.Discs = append(r.frame.Discs, Disc{X: round(x, 1), Y: round(y, 1), R: round(rad, 2), Color: c.CSS()})
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, c Color) {
	r.frame.Lines = append(r.frame.Lines, Line{
		X1: round(x1, 1), Y1: round(y1, 1),
		X2: round(x2, 1), Y2: round(y2, 1),
		Width: width, Color: c.CSS(),
	})
}

// Frame returns a copy of the recorded frame, safe to hand to another goroutine.
func (r *Recorder) Frame() Frame {
	f := r.frame
	f.Discs = append([]Disc(nil), r.frame.Discs...)
	f.Lines = append([]Line(nil), r.frame.Lines...)
	return f
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
