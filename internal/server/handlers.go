package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/nestree/pkg/buildinfo"
	"github.com/matzehuels/nestree/pkg/errors"
	nsio "github.com/matzehuels/nestree/pkg/io"
	"github.com/matzehuels/nestree/pkg/pipeline"
	"github.com/matzehuels/nestree/pkg/render/nodelink"
)

// contentTypes maps formats to response media types.
var contentTypes = map[nsio.Format]string{
	nsio.FormatCSV:   "text/csv; charset=utf-8",
	nsio.FormatTSV:   "text/tab-separated-values; charset=utf-8",
	nsio.FormatJSON:  "application/json",
	nsio.FormatYAML:  "application/yaml",
	nsio.FormatTable: "text/plain; charset=utf-8",
}

var diagramTypes = map[string]string{
	nodelink.FormatSVG: "image/svg+xml",
	nodelink.FormatPNG: "image/png",
	nodelink.FormatDOT: "text/vnd.graphviz",
}

// mediaFormats maps request media types to input formats, used when the
// from parameter is absent.
var mediaFormats = map[string]nsio.Format{
	"text/csv":                  nsio.FormatCSV,
	"text/tab-separated-values": nsio.FormatTSV,
	"application/json":          nsio.FormatJSON,
	"application/yaml":          nsio.FormatYAML,
	"application/x-yaml":        nsio.FormatYAML,
	"text/yaml":                 nsio.FormatYAML,
}

type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

// handleIndex rebuilds the records in the body.
//
// Query parameters: from (default: from Content-Type), to (default: from),
// complement, order, max_passes, refresh.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := inputFormat(q.Get("from"), r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to := from
	if v := q.Get("to"); v != "" {
		if to, err = nsio.ParseFormat(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, err := s.rebuild(w, r, from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := nsio.Write(&buf, to, res.Nodes); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[to])
	w.Header().Set("X-Cache", cacheStatus(res.CacheHit))
	w.Header().Set("X-Unfold-Passes", strconv.Itoa(res.Stats.UnfoldPasses))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRender rebuilds the records in the body and draws the result.
//
// Query parameters: from, format (svg, png, dot), direction, labels,
// intervals, complement.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := inputFormat(q.Get("from"), r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.RenderOptions{
		Format:  q.Get("format"),
		Options: nodelink.Options{Direction: q.Get("direction"), Labels: true},
	}
	if opts.Format == "" {
		opts.Format = nodelink.FormatSVG
	}
	if opts.Labels, err = boolParam(q.Get("labels"), true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Intervals, err = boolParam(q.Get("intervals"), false); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.rebuild(w, r, from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, cached, err := s.runner.Render(r.Context(), res.Nodes, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", diagramTypes[opts.Format])
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// rebuild decodes the body in format from and runs the pipeline with the
// server defaults overridden by query parameters.
func (s *Server) rebuild(w http.ResponseWriter, r *http.Request, from nsio.Format) (*pipeline.Result, error) {
	opts, err := s.rebuildOptions(r)
	if err != nil {
		return nil, err
	}

	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	nodes, err := nsio.Read(body, from)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.Wrap(errors.ErrCodeTooLarge, err, "request body exceeds %d bytes", s.maxBody)
		}
		return nil, err
	}
	return s.runner.Rebuild(r.Context(), nodes, opts)
}

func (s *Server) rebuildOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.defaults
	opts.Logger = s.logger

	var err error
	if opts.Complement, err = boolParam(q.Get("complement"), opts.Complement); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(q.Get("refresh"), false); err != nil {
		return opts, err
	}
	if v := q.Get("order"); v != "" {
		opts.Order = v
	}
	if v := q.Get("max_passes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "max_passes: expected a positive integer, got %q", v)
		}
		opts.MaxUnfoldPasses = n
	}
	return opts, nil
}

// =============================================================================
// Helpers
// =============================================================================

// inputFormat resolves the request format from the from parameter, then
// the Content-Type header.
func inputFormat(from, contentType string) (nsio.Format, error) {
	if from != "" {
		f, err := nsio.ParseFormat(from)
		if err != nil {
			return "", err
		}
		if !f.CanRead() {
			return "", errors.New(errors.ErrCodeInvalidFormat, "format %q is output only", f)
		}
		return f, nil
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if f, ok := mediaFormats[mt]; ok {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "missing option from: cannot infer format from Content-Type %q", contentType)
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.New(errors.ErrCodeInvalidInput, "expected a boolean, got %q", v)
	}
	return b, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	code := errors.GetCode(err)
	switch {
	case errors.IsInvalid(code):
		return http.StatusBadRequest
	case code == errors.ErrCodeTooLarge && stderrors.As(err, new(*http.MaxBytesError)):
		return http.StatusRequestEntityTooLarge
	case errors.IsStructural(code):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
