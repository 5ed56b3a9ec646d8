// Package visual turns session state into presentation values shared by the
// Telegram and terminal front-ends.
package visual

import (
	"math"
	"math/rand"
	"strings"
)

// MaxDegradationLevel is the withdrawal level at which the look stops getting worse
const MaxDegradationLevel = 10

// RGB is an 8-bit color
type RGB struct {
	R, G, B int
}

// Hex packs the color as 0xRRGGBB
func (c RGB) Hex() int32 {
	return int32(c.R)<<16 | int32(c.G)<<8 | int32(c.B)
}

// Look is the degraded appearance for a withdrawal level
type Look struct {
	// Factor runs from 0 (healthy) to 1 (fully degraded)
	Factor        float64
	Background    RGB
	BackgroundEnd RGB
	BlurPx        float64
	BrightnessPct int
}

var nature = RGB{R: 45, G: 90, B: 45}

// Degrade mixes the nature green toward gray and dims the screen as withdrawal grows
func Degrade(level int) Look {
	if level < 0 {
		level = 0
	}
	f := math.Min(float64(level)/MaxDegradationLevel, 1)
	gray := math.Floor(40 + f*40)

	mix := func(base int) int {
		return int(math.Floor(float64(base)*(1-f) + gray*f))
	}
	bg := RGB{R: mix(nature.R), G: mix(nature.G), B: mix(nature.B)}

	return Look{
		Factor:        f,
		Background:    bg,
		BackgroundEnd: RGB{R: clamp(bg.R - 20), G: clamp(bg.G - 20), B: clamp(bg.B - 20)},
		BlurPx:        math.Min(2, float64(level)*0.5),
		BrightnessPct: int(math.Max(20, float64(100-level*5))),
	}
}

// Healthy is the look during an effect window and in rehab
func Healthy() Look {
	return Degrade(0)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Dim scales a color by a brightness percentage
func Dim(c RGB, pct int) RGB {
	return RGB{R: clamp(c.R * pct / 100), G: clamp(c.G * pct / 100), B: clamp(c.B * pct / 100)}
}

// FlashColor is one of the effect flash colors
type FlashColor struct {
	Name  string
	Emoji string
	RGB   RGB
}

// FlashPalette is red, green, blue, yellow, magenta, cyan
var FlashPalette = []FlashColor{
	{Name: "red", Emoji: "🟥", RGB: RGB{R: 255}},
	{Name: "green", Emoji: "🟩", RGB: RGB{G: 255}},
	{Name: "blue", Emoji: "🟦", RGB: RGB{B: 255}},
	{Name: "yellow", Emoji: "🟨", RGB: RGB{R: 255, G: 255}},
	{Name: "magenta", Emoji: "🟪", RGB: RGB{R: 255, B: 255}},
	{Name: "cyan", Emoji: "💠", RGB: RGB{G: 255, B: 255}},
}

// Flash is the overlay for one effect pulse
type Flash struct {
	Color   FlashColor
	Opacity float64
}

// Pulse picks a random color; opacity alternates strong and faint
func Pulse(rng *rand.Rand, n int) Flash {
	opacity := 0.3
	if n%2 == 0 {
		opacity = 0.8
	}
	return Flash{
		Color:   FlashPalette[rng.Intn(len(FlashPalette))],
		Opacity: opacity,
	}
}

// Blend lays the flash over a base color
func (f Flash) Blend(base RGB) RGB {
	mix := func(b, o int) int {
		return clamp(int(math.Round(float64(b)*(1-f.Opacity) + float64(o)*f.Opacity)))
	}
	return RGB{R: mix(base.R, f.Color.RGB.R), G: mix(base.G, f.Color.RGB.G), B: mix(base.B, f.Color.RGB.B)}
}

// Soundtrack is the music mode a presenter should reflect
type Soundtrack string

const (
	SoundtrackCalm   Soundtrack = "calm"
	SoundtrackUpbeat Soundtrack = "upbeat"
)

// SoundtrackFor returns upbeat music during an effect and calm music otherwise
func SoundtrackFor(effectActive bool) Soundtrack {
	if effectActive {
		return SoundtrackUpbeat
	}
	return SoundtrackCalm
}

// Gauge draws a bar of width cells filled by factor
func Gauge(factor float64, width int, full, empty string) string {
	filled := int(math.Round(factor * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat(full, filled) + strings.Repeat(empty, width-filled)
}
