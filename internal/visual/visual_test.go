package visual_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glebk/rehab-clicker/internal/visual"
)

func TestDegradeHealthy(t *testing.T) {
	look := visual.Degrade(0)
	assert.Equal(t, 0.0, look.Factor)
	assert.Equal(t, visual.RGB{R: 45, G: 90, B: 45}, look.Background)
	assert.Equal(t, visual.RGB{R: 25, G: 70, B: 25}, look.BackgroundEnd)
	assert.Equal(t, 0.0, look.BlurPx)
	assert.Equal(t, 100, look.BrightnessPct)
}

func TestDegradeHalfway(t *testing.T) {
	look := visual.Degrade(5)
	assert.Equal(t, 0.5, look.Factor)
	// gray = 60
	assert.Equal(t, visual.RGB{R: 52, G: 75, B: 52}, look.Background)
	assert.Equal(t, 2.0, look.BlurPx)
	assert.Equal(t, 75, look.BrightnessPct)
}

func TestDegradeSaturates(t *testing.T) {
	ten := visual.Degrade(10)
	forty := visual.Degrade(40)
	assert.Equal(t, 1.0, ten.Factor)
	assert.Equal(t, visual.RGB{R: 80, G: 80, B: 80}, ten.Background)
	assert.Equal(t, ten.Background, forty.Background)
	assert.Equal(t, 50, ten.BrightnessPct)
	assert.Equal(t, 20, forty.BrightnessPct)
	assert.Equal(t, 2.0, forty.BlurPx)
}

func TestDegradeIsMonotonic(t *testing.T) {
	prev := visual.Degrade(0)
	for level := 1; level <= 30; level++ {
		cur := visual.Degrade(level)
		assert.GreaterOrEqual(t, cur.Factor, prev.Factor)
		assert.LessOrEqual(t, cur.BrightnessPct, prev.BrightnessPct)
		assert.GreaterOrEqual(t, cur.BlurPx, prev.BlurPx)
		// green fades toward gray even though the gray itself gets lighter
		assert.LessOrEqual(t, cur.Background.G-cur.Background.R, prev.Background.G-prev.Background.R)
		prev = cur
	}
}

func TestDegradeGreenDipsThenLightens(t *testing.T) {
	assert.Equal(t, 90, visual.Degrade(0).Background.G)
	assert.Less(t, visual.Degrade(6).Background.G, visual.Degrade(10).Background.G)
}

func TestPulseAlternatesOpacity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 10; n++ {
		f := visual.Pulse(rng, n)
		if n%2 == 0 {
			assert.Equal(t, 0.8, f.Opacity)
		} else {
			assert.Equal(t, 0.3, f.Opacity)
		}
		assert.Contains(t, visual.FlashPalette, f.Color)
	}
}

func TestFlashBlend(t *testing.T) {
	f := visual.Flash{Color: visual.FlashPalette[0], Opacity: 0.8}
	assert.Equal(t, visual.RGB{R: 213, G: 18, B: 9}, f.Blend(visual.RGB{R: 45, G: 90, B: 45}))
}

func TestGaugeAndHex(t *testing.T) {
	assert.Equal(t, "##---", visual.Gauge(0.4, 5, "#", "-"))
	assert.Equal(t, "#####", visual.Gauge(3, 5, "#", "-"))
	assert.Equal(t, "-----", visual.Gauge(-1, 5, "#", "-"))
	assert.Equal(t, "▓▓░░", visual.Gauge(0.5, 4, "▓", "░"))
	assert.Equal(t, int32(0x2d5a2d), visual.RGB{R: 45, G: 90, B: 45}.Hex())
	assert.Equal(t, visual.SoundtrackUpbeat, visual.SoundtrackFor(true))
	assert.Equal(t, visual.RGB{R: 22, G: 45, B: 22}, visual.Dim(visual.RGB{R: 45, G: 90, B: 45}, 50))
}
