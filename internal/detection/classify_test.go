package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// box returns the compressed contour of a w x h block at (x, y).
func box(x, y, w, h int) Contour {
	return Contour{{x, y}, {x + w - 1, y}, {x + w - 1, y + h - 1}, {x, y + h - 1}}
}

func TestClassify_AreaPercentage(t *testing.T) {
	r := Classify(box(10, 20, 10, 10), 100, 100, 0.5, 50)

	assert.Equal(t, Bounds{X1: 10, Y1: 20, X2: 20, Y2: 30}, r.Bounds)
	assert.InDelta(t, 1.0, r.AreaPct, 1e-9)
	assert.True(t, r.Accepted)
}

func TestClassify_LimitsAreExclusive(t *testing.T) {
	c := box(0, 0, 10, 10) // exactly 1% of 100x100

	tests := []struct {
		name     string
		min, max float64
		want     bool
	}{
		{"inside", 0.99, 1.01, true},
		{"equal to minimum", 1, 50, false},
		{"equal to maximum", 0, 1, false},
		{"below minimum", 2, 50, false},
		{"above maximum", 0, 0.5, false},
		{"empty window", 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(c, 100, 100, tt.min, tt.max)
			assert.Equal(t, tt.want, r.Accepted)
		})
	}
}

func TestClassify_FullFrame(t *testing.T) {
	r := Classify(box(0, 0, 100, 50), 100, 50, 3, 100)
	assert.InDelta(t, 100.0, r.AreaPct, 1e-9)
	assert.False(t, r.Accepted, "a frame-filling region never passes a maximum of 100")
}

func TestBoundsOf(t *testing.T) {
	assert.Equal(t, Bounds{}, BoundsOf(nil))

	b := BoundsOf(Contour{{5, 7}})
	assert.Equal(t, 1, b.Width())
	assert.Equal(t, 1, b.Height())
	assert.Equal(t, 1, b.Area())

	b = BoundsOf(Contour{{3, 9}, {8, 2}, {1, 4}})
	assert.Equal(t, Bounds{X1: 1, Y1: 2, X2: 9, Y2: 10}, b)
	assert.Equal(t, 8, b.Rect().Dx())
	assert.Equal(t, 8, b.Rect().Dy())
}
