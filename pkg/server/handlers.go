package server

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/complexdatacollective/pedigree/pkg/buildinfo"
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type layoutResponse struct {
	ID       string                  `json:"id"`
	CacheHit bool                    `json:"cache_hit"`
	Stats    statsResponse           `json:"stats"`
	Layout   *pedfile.LayoutDocument `json:"layout"`
}

type statsResponse struct {
	Individuals int     `json:"individuals"`
	Levels      int     `json:"levels"`
	Cells       int     `json:"cells"`
	LayoutMS    float64 `json:"layout_ms"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.ComputeLayout(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse{
		ID:       res.ID,
		CacheHit: res.CacheInfo.LayoutHit,
		Stats: statsResponse{
			Individuals: res.Stats.Individuals,
			Levels:      res.Stats.Levels,
			Cells:       res.Stats.Cells,
			LayoutMS:    float64(res.Stats.LayoutTime.Microseconds()) / 1000,
		},
		Layout: pedfile.NewLayoutDocument(res.Layout, res.Pedigree),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	doc, err := s.readDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Layout-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*pedfile.Document, error) {
	format := pedfile.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "application/toml" {
			format = pedfile.FormatTOML
		}
	}
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()
	return pedfile.ReadPedigree(body, format)
}

// parseOptions starts from the defaults and applies query parameters.
func parseOptions(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	q := r.URL.Query()

	bools := []struct {
		name string
		dst  *bool
	}{
		{"align", &opts.Align},
		{"packed", &opts.Packed},
		{"refresh", &opts.Refresh},
		{"detailed", &opts.Detailed},
	}
	for _, b := range bools {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", b.name, v)
		}
		*b.dst = parsed
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"width", &opts.Width},
		{"child_penalty", &opts.ChildPenalty},
		{"spouse_penalty", &opts.SpousePenalty},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "query parameter %s: %q is not a number", f.name, v)
		}
		*f.dst = parsed
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := perrors.GetCode(err)
	if perrors.IsInputError(err) {
		status = http.StatusUnprocessableEntity
	}
	if code == "" {
		code = perrors.ErrCodeInternal
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
		msg = perrors.UserMessage(err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
