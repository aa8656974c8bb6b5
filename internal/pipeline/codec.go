package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/dunamismax/upright/internal/domain"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func decodeImage(input []byte) (image.Image, string, error) {
	if len(input) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// outputFormat picks the requested format, or the source format when none
// was requested. Formats without an encoder fall back to png.
func outputFormat(requested, source string) string {
	format := domain.NormalizeFormat(requested)
	if format == "" {
		format = domain.NormalizeFormat(source)
	}
	switch format {
	case domain.FormatJPEG, domain.FormatPNG, domain.FormatBMP, domain.FormatTIFF:
		return format
	default:
		return domain.FormatPNG
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case domain.FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case domain.FormatPNG:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case domain.FormatBMP:
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode bmp: %w", err)
		}
	case domain.FormatTIFF:
		if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, fmt.Errorf("encode tiff: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}

func ContentType(format string) string {
	switch strings.ToLower(format) {
	case domain.FormatJPEG:
		return "image/jpeg"
	case domain.FormatBMP:
		return "image/bmp"
	case domain.FormatTIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}
