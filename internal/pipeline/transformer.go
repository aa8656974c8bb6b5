package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dunamismax/upright/internal/config"
	"github.com/dunamismax/upright/internal/domain"
	"github.com/dunamismax/upright/internal/normalize"
	"github.com/dunamismax/upright/internal/orientation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
)

var (
	ErrDecode            = errors.New("decode source image")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidStep       = errors.New("invalid normalize step")
)

type Output struct {
	StepID  string
	Format  string
	Data    []byte
	Width   int
	Height  int
	Scale   float64
	Warning error
}

type Transformer interface {
	Transform(ctx context.Context, input []byte, step domain.NormalizeStep) (Output, error)
}

type OrientTransformer struct {
	logger       *log.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	maxDimension int
	interpolator draw.Interpolator
}

func NewOrientTransformer(logger *log.Logger, cfg config.NormalizeConfig, m *Metrics) (*OrientTransformer, error) {
	if cfg.MaxDimension <= 0 {
		return nil, fmt.Errorf("%w: got %d", normalize.ErrInvalidMaxDimension, cfg.MaxDimension)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[pipeline] ", log.LstdFlags|log.Lmsgprefix)
	}
	if m == nil {
		m = NewMetrics(nil)
	}
	return &OrientTransformer{
		logger:       logger,
		metrics:      m,
		tracer:       otel.Tracer("upright/pipeline"),
		maxDimension: cfg.MaxDimension,
		interpolator: cfg.Interpolator(),
	}, nil
}

func (t *OrientTransformer) Transform(ctx context.Context, input []byte, step domain.NormalizeStep) (Output, error) {
	startedAt := time.Now()
	status := "failed"
	label := "invalid"

	ctx, span := t.tracer.Start(ctx, "pipeline.normalize", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("step.id", step.ID),
		attribute.Int("source.bytes", len(input)),
	)
	defer span.End()
	defer func() {
		t.metrics.duration.WithLabelValues(status).Observe(time.Since(startedAt).Seconds())
		t.metrics.normalizationsTotal.WithLabelValues(label, status).Inc()
	}()

	o, err := resolveStep(step)
	if err == nil {
		label = orientationLabel(o)
		span.SetAttributes(
			attribute.String("image.orientation", o.String()),
			attribute.Int("image.orientation_exif", o.EXIF()),
		)
	}

	var out Output
	if err == nil {
		out, err = t.transform(ctx, input, step, o, span)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		return Output{}, err
	}

	status = "succeeded"
	if out.Warning != nil {
		status = "warning"
	}
	span.SetStatus(codes.Ok, "normalized")
	return out, nil
}

func resolveStep(step domain.NormalizeStep) (orientation.Orientation, error) {
	if err := step.Validate(); err != nil {
		return orientation.Up, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	o, err := step.ResolveOrientation()
	if err != nil {
		return orientation.Up, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	return o, nil
}

func (t *OrientTransformer) transform(ctx context.Context, input []byte, step domain.NormalizeStep, o orientation.Orientation, span trace.Span) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	src, srcFormat, err := decodeImage(input)
	if err != nil {
		return Output{}, err
	}

	maxDimension := step.MaxDimension
	if maxDimension == 0 {
		maxDimension = t.maxDimension
	}
	n, err := normalize.New(
		normalize.WithMaxDimension(maxDimension),
		normalize.WithInterpolator(t.interpolator),
	)
	if err != nil {
		return Output{}, err
	}

	sb := src.Bounds()
	span.SetAttributes(
		attribute.String("image.source_format", srcFormat),
		attribute.Int("image.source_width", sb.Dx()),
		attribute.Int("image.source_height", sb.Dy()),
		attribute.Int("image.max_dimension", maxDimension),
	)

	res, err := n.Normalize(src, o)
	if err != nil {
		return Output{}, fmt.Errorf("normalize: %w", err)
	}
	if res.Warning != nil {
		t.metrics.warningsTotal.WithLabelValues(warningKind(res.Warning)).Inc()
		span.AddEvent("normalize.warning", trace.WithAttributes(attribute.String("warning", res.Warning.Error())))
		t.logger.Printf("normalize warning step=%s orientation=%s exif=%d requested_exif=%d err=%v", step.ID, o, o.EXIF(), step.EXIFOrientation, res.Warning)
	}
	if res.Scale != 1 {
		t.metrics.scaledTotal.Inc()
	}
	span.SetAttributes(
		attribute.Int("image.width", res.Width),
		attribute.Int("image.height", res.Height),
		attribute.Float64("image.scale", res.Scale),
	)

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	format := outputFormat(step.Format, srcFormat)
	data, err := encodeImage(res.Image, format, step.Quality)
	if err != nil {
		return Output{}, err
	}
	t.metrics.pixelsOutTotal.Add(float64(res.Width * res.Height))

	return Output{
		StepID:  step.ID,
		Format:  format,
		Data:    data,
		Width:   res.Width,
		Height:  res.Height,
		Scale:   res.Scale,
		Warning: res.Warning,
	}, nil
}

func orientationLabel(o orientation.Orientation) string {
	if !o.Valid() {
		return "unrecognized"
	}
	return o.String()
}

func warningKind(err error) string {
	if errors.Is(err, normalize.ErrUnrecognizedOrientation) {
		return "unrecognized_orientation"
	}
	return "other"
}
