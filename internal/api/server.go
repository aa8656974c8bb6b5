package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dunamismax/upright/internal/domain"
	"github.com/dunamismax/upright/internal/id"
	"github.com/dunamismax/upright/internal/normalize"
	"github.com/dunamismax/upright/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderWidth   = "X-Upright-Width"
	HeaderHeight  = "X-Upright-Height"
	HeaderScale   = "X-Upright-Scale"
	HeaderWarning = "X-Upright-Warning"
	HeaderRequest = "X-Request-ID"

	defaultMaxBodyBytes = 32 << 20
)

type Server struct {
	logger       *log.Logger
	transformer  pipeline.Transformer
	metrics      *metrics
	tracer       trace.Tracer
	maxBodyBytes int64
	mux          *http.ServeMux

	rateLimiter            RateLimiter
	rateLimitSubjectHeader string
	rateLimitCostUnit      int64
}

// NewServer registers the API collectors on registry so one /metrics
// endpoint exposes them next to the pipeline collectors.
func NewServer(logger *log.Logger, transformer pipeline.Transformer, registry *prometheus.Registry, maxBodyBytes int64, opts ...Option) *Server {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		logger:       logger,
		transformer:  transformer,
		metrics:      newMetrics(registry),
		tracer:       otel.Tracer("upright/api"),
		maxBodyBytes: maxBodyBytes,
		mux:          http.NewServeMux(),
	}
	for _, apply := range opts {
		apply(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.metrics.withHTTPMetrics(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/normalize", s.handleNormalize)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requestID := requestIDFor(q, r.Header.Get(HeaderRequest))
	w.Header().Set(HeaderRequest, requestID)

	step, err := stepFromQuery(q, requestID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("source image exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}
	s.metrics.requestBytes.Observe(float64(len(body)))

	out, err := s.transformer.Transform(r.Context(), body, step)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			s.logger.Printf("normalize failed step=%s err=%v", step.ID, err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h := w.Header()
	h.Set("Content-Type", pipeline.ContentType(out.Format))
	h.Set("Content-Length", strconv.Itoa(len(out.Data)))
	h.Set(HeaderWidth, strconv.Itoa(out.Width))
	h.Set(HeaderHeight, strconv.Itoa(out.Height))
	h.Set(HeaderScale, strconv.FormatFloat(out.Scale, 'f', -1, 64))
	if out.Warning != nil {
		h.Set(HeaderWarning, out.Warning.Error())
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		s.logger.Printf("write response failed step=%s err=%v", step.ID, err)
	}
}

// requestIDFor picks the id query parameter over the request ID header and
// generates one when neither is usable.
func requestIDFor(q url.Values, header string) string {
	if v := q.Get("id"); strings.TrimSpace(v) != "" {
		return id.Accept(v)
	}
	return id.Accept(header)
}

func stepFromQuery(q url.Values, requestID string) (domain.NormalizeStep, error) {
	step := domain.NormalizeStep{
		ID:          requestID,
		Orientation: q.Get("orientation"),
		Format:      q.Get("format"),
	}

	ints := []struct {
		key  string
		into *int
	}{
		{"exif", &step.EXIFOrientation},
		{"max_dimension", &step.MaxDimension},
		{"quality", &step.Quality},
	}
	for _, field := range ints {
		raw := strings.TrimSpace(q.Get(field.key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.NormalizeStep{}, fmt.Errorf("%s must be an integer", field.key)
		}
		*field.into = v
	}

	if err := step.Validate(); err != nil {
		return domain.NormalizeStep{}, err
	}
	return step, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDecode), errors.Is(err, normalize.ErrEmptySource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, normalize.ErrAllocation):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
