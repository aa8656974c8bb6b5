package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunamismax/upright/internal/orientation"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// NormalizeStep describes one orientation-normalization request. The
// orientation comes either as a name or as an already extracted EXIF tag;
// the name wins when both are set.
type NormalizeStep struct {
	ID              string `json:"id"`
	Orientation     string `json:"orientation,omitempty"`
	EXIFOrientation int    `json:"exif_orientation,omitempty"`
	MaxDimension    int    `json:"max_dimension,omitempty"`
	Format          string `json:"format,omitempty"`
	Quality         int    `json:"quality,omitempty"`
}

func (s NormalizeStep) Validate() error {
	if strings.TrimSpace(s.Orientation) != "" {
		if _, err := orientation.Parse(s.Orientation); err != nil {
			return err
		}
	}
	if s.EXIFOrientation < 0 {
		return errors.New("exif_orientation must be >= 0")
	}
	if s.MaxDimension < 0 {
		return errors.New("max_dimension must be >= 0")
	}
	if s.Quality < 0 || s.Quality > 100 {
		return fmt.Errorf("quality must be within 0..100, got %d", s.Quality)
	}
	switch NormalizeFormat(s.Format) {
	case "", FormatJPEG, FormatPNG, FormatBMP, FormatTIFF:
	default:
		return fmt.Errorf("unsupported format: %s", s.Format)
	}
	return nil
}

// ResolveOrientation returns the orientation to apply. An EXIF tag outside
// 1..8 resolves to orientation.Unrecognized so the normalizer can warn.
func (s NormalizeStep) ResolveOrientation() (orientation.Orientation, error) {
	if strings.TrimSpace(s.Orientation) != "" {
		return orientation.Parse(s.Orientation)
	}
	if s.EXIFOrientation == 0 {
		return orientation.Up, nil
	}
	o, _ := orientation.FromEXIF(s.EXIFOrientation)
	return o, nil
}

func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "jpg":
		return FormatJPEG
	case "tif":
		return FormatTIFF
	default:
		return format
	}
}
