//go:build cgo

package media

import (
	"image"

	"github.com/xo/resvg"
)

// rasterizeSVG renders SVG bytes at the given width, keeping the aspect
// ratio via best-fit scaling. Width 0 uses the SVG's natural size.
func rasterizeSVG(data []byte, width int) (image.Image, error) {
	opts := []resvg.Option{resvg.WithScaleMode(resvg.ScaleBestFit)}
	if width > 0 {
		opts = append(opts, resvg.WithWidth(width))
	}
	return resvg.Render(data, opts...)
}
