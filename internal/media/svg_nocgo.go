//go:build !cgo

package media

import (
	"fmt"
	"image"
)

// SVG rasterization binds resvg through cgo; builds without it reject SVG
// uploads as unsupported.
func rasterizeSVG(_ []byte, _ int) (image.Image, error) {
	return nil, fmt.Errorf("%w: svg rasterization requires cgo builds", ErrUnsupportedFormat)
}
