package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/bigpicture/pkg/errors"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
)

// Response headers describing a rendered graph.
const (
	headerCache   = "X-Cache"
	headerCommits = "X-Commit-Count"
	headerDigits  = "X-Digits"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Format = strings.ToLower(chi.URLParam(r, "format"))

	res, err := s.runner.Execute(r.Context(), s.source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if res.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", dot.ContentType(opts.Format))
	h.Set("Content-Length", strconv.Itoa(len(res.Artifact)))
	h.Set(headerCache, cacheStatus)
	h.Set(headerCommits, strconv.Itoa(res.Stats.FilteredCommits))
	h.Set(headerDigits, pipeline.FormatDigits(res.Digits))
	_, _ = w.Write(res.Artifact)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Format = dot.FormatDOT

	res, err := s.runner.Execute(r.Context(), s.source, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Summary())
}

// options applies the query parameters of r to the configured defaults.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	opts.Include = slices.Clone(opts.Include)
	opts.Logger = s.logger

	q := r.URL.Query()
	flags := []struct {
		name string
		dst  *bool
	}{
		{"branches", &opts.Branches},
		{"tags", &opts.Tags},
		{"roots", &opts.Roots},
		{"merges", &opts.Merges},
		{"bifurcations", &opts.Bifurcations},
		{"ids", &opts.ShowIDs},
	}
	for _, f := range flags {
		if !q.Has(f.name) {
			continue
		}
		v, err := parseBool(q.Get(f.name))
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s", f.name)
		}
		*f.dst = v
	}

	for _, v := range q["include"] {
		for _, rev := range strings.Split(v, ",") {
			if rev = strings.TrimSpace(rev); rev != "" {
				opts.Include = append(opts.Include, rev)
			}
		}
	}
	if q.Has("digits") {
		digits, err := pipeline.ParseDigits(q.Get("digits"))
		if err != nil {
			return opts, err
		}
		opts.Digits = digits
	}
	if q.Has("scope") {
		opts.Scope = q.Get("scope")
	}
	return opts, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return true, nil
	}
	return strconv.ParseBool(s)
}

// =============================================================================
// Errors
// =============================================================================

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	switch {
	case code != "":
	case stderrors.Is(err, context.DeadlineExceeded):
		code = errors.ErrCodeTimeout
	default:
		code = errors.ErrCodeInternal
	}

	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", id, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     errors.UserMessage(err),
		Code:      string(code),
		RequestID: id,
	})
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if stderrors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidRevision,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeRepositoryNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeGraphInconsistent:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
