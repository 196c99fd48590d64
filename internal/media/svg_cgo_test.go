//go:build cgo

package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">` +
	`<rect width="200" height="100" fill="#191970"/>` +
	`<circle cx="100" cy="50" r="40" fill="#ffd700"/>` +
	`</svg>`

func TestResizeSVGUpload(t *testing.T) {
	resizer := newTestResizer(t)

	variants, err := resizer.Resize(context.Background(), []byte(testSVG), false)
	require.NoError(t, err)
	require.Len(t, variants, 3)

	decoded := variantsByName(t, variants)
	require.Equal(t, 640, decoded["640x.jpg"].Bounds().Dx())

	// Rasterized at the widest target, so the original is 2000px across
	// with the 2:1 aspect ratio preserved.
	original := decoded[OriginalFileName]
	require.Equal(t, 2000, original.Bounds().Dx())
	ratio := float64(original.Bounds().Dx()) / float64(original.Bounds().Dy())
	require.InDelta(t, 2.0, ratio, 0.05)
}
