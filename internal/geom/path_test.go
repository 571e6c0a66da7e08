package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathRect(t *testing.T, d string) (Rect, bool) {
	t.Helper()
	var b bounds
	pathBounds([]byte(d), identity(), &b)
	if !b.set {
		return Rect{}, false
	}
	return b.rect(), true
}

func TestPathBoundsLines(t *testing.T) {
	box, ok := pathRect(t, "M10 10 L30 40 z")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 20, H: 30}, box)
}

func TestPathBoundsRelative(t *testing.T) {
	box, ok := pathRect(t, "m10 10 l20 30")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 20, H: 30}, box)
}

func TestPathBoundsHorizontalVertical(t *testing.T) {
	box, ok := pathRect(t, "M5 5 H25 V15 h-10 v5")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 5, Y: 5, W: 20, H: 15}, box)
}

func TestPathBoundsCubicControlPoints(t *testing.T) {
	// control points are included, so the box covers them
	box, ok := pathRect(t, "M0 0 C10 40 20 40 30 0")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 30, H: 40}, box)
}

func TestPathBoundsRelativeCubic(t *testing.T) {
	box, ok := pathRect(t, "M10 10 c5 5 10 5 15 0")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 15, H: 5}, box)
}

func TestPathBoundsQuadratic(t *testing.T) {
	box, ok := pathRect(t, "M0 0 Q15 30 30 0")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 30, H: 30}, box)
}

func TestPathBoundsArcEndpoints(t *testing.T) {
	box, ok := pathRect(t, "M0 0 A10 10 0 0 1 20 0")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 20, H: 0}, box)
}

func TestPathBoundsImplicitLineto(t *testing.T) {
	// coordinate pairs after the moveto pair are implicit lineto
	box, ok := pathRect(t, "M0 0 10 10 20 5")
	require.True(t, ok)
	assert.Equal(t, Rect{X: 0, Y: 0, W: 20, H: 10}, box)
}

func TestPathBoundsCompactNegatives(t *testing.T) {
	box, ok := pathRect(t, "M10-5L-10 5")
	require.True(t, ok)
	assert.Equal(t, Rect{X: -10, Y: -5, W: 20, H: 10}, box)
}

func TestPathBoundsEmpty(t *testing.T) {
	_, ok := pathRect(t, "")
	assert.False(t, ok)
}
