package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/audfs/creator-node/internal/logger"
)

// ErrUnsupportedFormat is returned when the uploaded bytes are not an image
// this node can decode.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// OriginalFileName is the directory entry that carries the full-size image.
const OriginalFileName = "original.jpg"

// Square artwork ships as fixed thumbnail edges, wide artwork as fixed
// widths with the height following the source aspect ratio.
var (
	squareEdges = []int{150, 480, 1000}
	wideWidths  = []int{640, 2000}
)

// Variant is one generated rendition of an upload, named the way it appears
// inside the image directory.
type Variant struct {
	FileName string
	Data     []byte
}

// Config holds configuration for the resizer
type Config struct {
	// WorkerConcurrency bounds how many resize jobs run at once
	WorkerConcurrency int

	// JPEGQuality is the encode quality for every variant (1-100)
	JPEGQuality int
}

// Resizer turns an uploaded image into its JPEG variants
//
//go:generate mockgen -source=resizer.go -destination=../mocks/media.go -package=mocks -mock_names=Resizer=MockResizer
type Resizer interface {
	// Resize decodes an upload and produces its variants plus the
	// re-encoded original. Safe for concurrent use; work is bounded by the
	// configured worker concurrency.
	Resize(ctx context.Context, data []byte, square bool) ([]Variant, error)

	// Close shuts down the resize worker pool
	Close() error
}

// resizer is the implementation of the Resizer interface
type resizer struct {
	config Config
	pool   pond.ResultPool[[]Variant]
}

// NewResizer creates a new image resizer with a bounded worker pool
func NewResizer(cfg Config) Resizer {
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 90
	}

	return &resizer{
		config: cfg,
		pool:   pond.NewResultPool[[]Variant](cfg.WorkerConcurrency),
	}
}

// Resize decodes an upload and produces its variants
func (r *resizer) Resize(ctx context.Context, data []byte, square bool) ([]Variant, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnsupportedFormat)
	}

	task := r.pool.SubmitErr(func() ([]Variant, error) {
		return r.resizeInternal(ctx, data, square)
	})

	variants, err := task.Wait()
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Image variants generated",
		zap.Int("sourceSize", len(data)),
		zap.Bool("square", square),
		zap.Int("variantCount", len(variants)),
	)
	return variants, nil
}

// Close shuts down the resize worker pool
func (r *resizer) Close() error {
	_ = r.pool.Stop()
	return nil
}

// resizeInternal performs the actual decode and variant generation
func (r *resizer) resizeInternal(ctx context.Context, data []byte, square bool) ([]Variant, error) {
	img, err := r.decode(ctx, data, square)
	if err != nil {
		return nil, err
	}

	var variants []Variant
	if square {
		for _, edge := range squareEdges {
			thumb := imaging.Fill(img, edge, edge, imaging.Center, imaging.Lanczos)
			encoded, err := r.encodeJPEG(thumb)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %dx%d variant: %w", edge, edge, err)
			}
			variants = append(variants, Variant{
				FileName: fmt.Sprintf("%dx%d.jpg", edge, edge),
				Data:     encoded,
			})
		}
	} else {
		for _, width := range wideWidths {
			resized := imaging.Resize(img, width, 0, imaging.Lanczos)
			encoded, err := r.encodeJPEG(resized)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %dx variant: %w", width, err)
			}
			variants = append(variants, Variant{
				FileName: fmt.Sprintf("%dx.jpg", width),
				Data:     encoded,
			})
		}
	}

	original, err := r.encodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode original: %w", err)
	}
	variants = append(variants, Variant{FileName: OriginalFileName, Data: original})

	return variants, nil
}

// decode sniffs the upload and decodes it into memory. SVG artwork is
// rasterized at the largest target edge so thumbnails never upscale a tiny
// render.
func (r *resizer) decode(ctx context.Context, data []byte, square bool) (image.Image, error) {
	mtype := mimetype.Detect(data)

	if mtype.Is("image/svg+xml") {
		width := wideWidths[len(wideWidths)-1]
		if square {
			width = squareEdges[len(squareEdges)-1]
		}
		img, err := rasterizeSVG(data, width)
		if err != nil {
			logger.WarnCtx(ctx, "Failed to rasterize SVG upload", zap.Error(err))
			return nil, err
		}
		return img, nil
	}

	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	// AutoOrientation applies the EXIF rotation so variants match what the
	// uploader saw.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (r *resizer) encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.config.JPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
