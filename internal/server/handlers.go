package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/simonhull/firebird-suite/falcon/pkg/fortios"
	"github.com/simonhull/firebird-suite/falcon/pkg/logger"
	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
	"github.com/simonhull/firebird-suite/falcon/pkg/versioning"
)

// maxBodyBytes bounds validate request bodies
const maxBodyBytes = 4 << 20

// ModuleInfo summarizes a registered module
type ModuleInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Endpoint  string `json:"endpoint"`
	Parameter string `json:"parameter"`
	MKey      string `json:"mkey,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", logger.F("error", err))
	}
}

// writeError writes a structured JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// lookupModule resolves the {module} path parameter
func (s *Server) lookupModule(w http.ResponseWriter, r *http.Request) (*fortios.Module, bool) {
	name := chi.URLParam(r, "module")
	m, ok := s.registry.Lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown module: "+name)
		return nil, false
	}
	return m, true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"modules": len(s.registry.Names()),
	})
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	modules := make([]ModuleInfo, 0, len(names))
	for _, name := range names {
		m, ok := s.registry.Lookup(name)
		if !ok {
			continue
		}
		modules = append(modules, ModuleInfo{
			Name:      m.Name,
			Path:      m.Path,
			Endpoint:  m.Endpoint,
			Parameter: m.Parameter,
			MKey:      m.MKey,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"modules": modules})
}

func (s *Server) specHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupModule(w, r)
	if !ok {
		return
	}
	spec, err := m.Spec()
	if err != nil {
		s.log.Error("Module schema is broken", logger.F("module", m.Name), logger.F("error", err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"module": m.Name,
		"spec":   spec,
	})
}

// validateHandler checks a request body of the form {target, params}, in JSON
// or YAML. The target may also be given as a query parameter.
func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return
	}
	raw, err := schema.DecodeYAML(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	req, _ := raw.(*schema.Map)
	if req == nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be an object with target and params")
		return
	}

	target := req.String("target")
	if q := r.URL.Query().Get("target"); q != "" {
		target = q
	}
	if target == "" {
		s.writeError(w, http.StatusBadRequest, "MISSING_TARGET", "target version is required")
		return
	}
	params, _ := req.Get("params")

	if _, err := m.Root(); err != nil {
		s.log.Error("Module schema is broken", logger.F("module", m.Name), logger.F("error", err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	result, err := m.Check(params, target)
	switch {
	case errors.Is(err, versioning.ErrMalformedSchema):
		s.writeError(w, http.StatusUnprocessableEntity, "MALFORMED_PARAMS", err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, "INVALID_TARGET", err.Error())
		return
	}

	s.metrics.validations.WithLabelValues(m.Name, strconv.FormatBool(result.Matched)).Inc()
	s.log.Debug("Validated request",
		logger.F("module", m.Name),
		logger.F("target", target),
		logger.F("matched", result.Matched))
	s.writeJSON(w, http.StatusOK, result)
}
