// Package normalize turns an image stored in any of the eight orientations
// into an upright image whose longer side is bounded by a maximum dimension.
//
// A Normalizer holds only immutable options, so one value may be shared by
// any number of goroutines. Sources are read, never written.
package normalize

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/dunamismax/upright/internal/orientation"
	"golang.org/x/image/draw"
)

const DefaultMaxDimension = 1280

var (
	ErrEmptySource             = errors.New("source image has no pixels")
	ErrUnrecognizedOrientation = errors.New("unrecognized orientation")
	ErrAllocation              = errors.New("allocate destination image")
	ErrInvalidMaxDimension     = errors.New("max dimension must be > 0")
)

// Allocator creates the destination canvas. like is the source image, so an
// allocator may pick a matching pixel model.
type Allocator func(r image.Rectangle, like image.Image) (draw.Image, error)

type Options struct {
	// MaxDimension bounds the longer side of the output in pixels.
	MaxDimension int
	// Interpolator resamples when the output is scaled down. Unscaled
	// output always uses nearest-neighbour so pixels are copied exactly.
	Interpolator draw.Interpolator
	Allocator    Allocator
}

type Option func(*Options)

func WithMaxDimension(n int) Option {
	return func(o *Options) { o.MaxDimension = n }
}

func WithInterpolator(i draw.Interpolator) Option {
	return func(o *Options) { o.Interpolator = i }
}

func WithAllocator(a Allocator) Option {
	return func(o *Options) { o.Allocator = a }
}

type Normalizer struct {
	opts Options
}

func New(opts ...Option) (*Normalizer, error) {
	o := Options{
		MaxDimension: DefaultMaxDimension,
		Interpolator: draw.CatmullRom,
		Allocator:    NewCanvas,
	}
	for _, apply := range opts {
		apply(&o)
	}
	if o.MaxDimension <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxDimension, o.MaxDimension)
	}
	if o.Interpolator == nil {
		o.Interpolator = draw.CatmullRom
	}
	if o.Allocator == nil {
		o.Allocator = NewCanvas
	}
	return &Normalizer{opts: o}, nil
}

func (n *Normalizer) MaxDimension() int {
	return n.opts.MaxDimension
}

// Result is an upright image owned by the caller.
type Result struct {
	Image       draw.Image
	Width       int
	Height      int
	Orientation orientation.Orientation
	// Scale is the uniform factor applied to the source, 1 when unscaled.
	Scale float64
	// Warning is set for non-fatal conditions such as an unrecognized
	// orientation, in which case no rotation was applied.
	Warning error
}

// Normalize is a one-shot helper around New and (*Normalizer).Normalize.
func Normalize(src image.Image, o orientation.Orientation, maxDimension int) (Result, error) {
	n, err := New(WithMaxDimension(maxDimension))
	if err != nil {
		return Result{}, err
	}
	return n.Normalize(src, o)
}

func (n *Normalizer) Normalize(src image.Image, o orientation.Orientation) (Result, error) {
	if src == nil {
		return Result{}, ErrEmptySource
	}
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w <= 0 || h <= 0 {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrEmptySource, w, h)
	}

	var warning error
	rec, ok := lookupRecipe(o)
	if !ok {
		warning = fmt.Errorf("%w: %d", ErrUnrecognizedOrientation, int(o))
	}

	bw, bh := Bounds(w, h, n.opts.MaxDimension)
	scaled := bw != w || bh != h
	scale := 1.0
	if scaled {
		// The clamped side's factor. The derived side is sampled at its
		// own rounded factor, which differs from this by under a pixel.
		scale = float64(n.opts.MaxDimension) / float64(max(w, h))
	}
	dw, dh := bw, bh
	if o.SwapsAxes() {
		dw, dh = bh, bw
	}

	dst, err := n.allocate(image.Rect(0, 0, dw, dh), src)
	if err != nil {
		return Result{}, err
	}

	interp := n.opts.Interpolator
	if !scaled {
		interp = draw.NearestNeighbor
	}
	interp.Transform(dst, rec.matrix(w, h, bw, bh, sb.Min.X, sb.Min.Y), src, sb, draw.Src, nil)

	return Result{
		Image:       dst,
		Width:       dw,
		Height:      dh,
		Orientation: orientation.Up,
		Scale:       scale,
		Warning:     warning,
	}, nil
}

// Bounds returns the target size on the stored axes. When the longer side
// exceeds maxDimension, the side picked by the width-to-height ratio is
// clamped and the other derived from it; smaller sources keep their size.
func Bounds(w, h, maxDimension int) (int, int) {
	if w <= maxDimension && h <= maxDimension {
		return w, h
	}

	ratio := float64(w) / float64(h)
	if ratio > 1 {
		return maxDimension, atLeastOne(math.Round(float64(maxDimension) / ratio))
	}
	return atLeastOne(math.Round(float64(maxDimension) * ratio)), maxDimension
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

func (n *Normalizer) allocate(r image.Rectangle, like image.Image) (dst draw.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			dst, err = nil, fmt.Errorf("%w: %dx%d: %v", ErrAllocation, r.Dx(), r.Dy(), p)
		}
	}()

	dst, err = n.opts.Allocator(r, like)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d: %w", ErrAllocation, r.Dx(), r.Dy(), err)
	}
	if dst == nil || dst.Bounds() != r {
		return nil, fmt.Errorf("%w: %dx%d: allocator returned wrong bounds", ErrAllocation, r.Dx(), r.Dy())
	}
	return dst, nil
}

// NewCanvas allocates an NRGBA canvas for NRGBA sources and RGBA otherwise.
func NewCanvas(r image.Rectangle, like image.Image) (draw.Image, error) {
	if r.Dx() > 0 && r.Dy() > math.MaxInt/4/r.Dx() {
		return nil, fmt.Errorf("%dx%d pixels overflows buffer size", r.Dx(), r.Dy())
	}
	if _, ok := like.(*image.NRGBA); ok {
		return image.NewNRGBA(r), nil
	}
	return image.NewRGBA(r), nil
}
