package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension = 1024
	defaultJPEGQuality  = 85
)

type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type Result struct {
	Bytes       []byte
	ContentType string
	Resized     bool
}

type Processor interface {
	Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error)
}

var _ Processor = (*ResizeProcessor)(nil)

// ResizeProcessor scales images down to fit a bounding square and re-encodes
// resized output as JPEG. Images already within bounds pass through untouched.
type ResizeProcessor struct {
	maxDimension int
	jpegQuality  int
}

func NewResizeProcessor(maxDimension int) *ResizeProcessor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &ResizeProcessor{maxDimension: maxDimension, jpegQuality: defaultJPEGQuality}
}

func (p *ResizeProcessor) Process(ctx context.Context, upload Upload, maxDimension int) (*Result, error) {
	if upload.Reader == nil {
		return nil, fmt.Errorf("media: empty reader")
	}
	data, err := io.ReadAll(upload.Reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media: empty image data")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode image: %w", err)
	}
	contentType := normalizeContentType(upload.ContentType, format)

	targetMax := maxDimension
	if targetMax <= 0 {
		targetMax = p.maxDimension
	}
	bounds := src.Bounds()
	if bounds.Dx() <= targetMax && bounds.Dy() <= targetMax {
		return &Result{Bytes: data, ContentType: contentType, Resized: false}, nil
	}

	targetW, targetH := scaleToFit(bounds.Dx(), bounds.Dy(), targetMax)
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.jpegQuality}); err != nil {
		return nil, fmt.Errorf("media: encode jpeg: %w", err)
	}
	return &Result{Bytes: buf.Bytes(), ContentType: "image/jpeg", Resized: true}, nil
}

func scaleToFit(width, height, maxDim int) (int, int) {
	if width >= height {
		newH := int(math.Round(float64(height) * float64(maxDim) / float64(width)))
		return ensureMin(maxDim), ensureMin(newH)
	}
	newW := int(math.Round(float64(width) * float64(maxDim) / float64(height)))
	return ensureMin(newW), ensureMin(maxDim)
}

func ensureMin(value int) int {
	if value < 2 {
		return 2
	}
	return value
}

func normalizeContentType(value, format string) string {
	ct := strings.ToLower(strings.TrimSpace(value))
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	if ct != "" {
		return ct
	}
	if format != "" {
		return "image/" + format
	}
	return "image/jpeg"
}
