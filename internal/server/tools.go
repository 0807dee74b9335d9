package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/usagelens/usagelens/internal/analytics"
	"github.com/usagelens/usagelens/internal/tools"
)

// maxInvokeBody bounds invocation request bodies.
const maxInvokeBody = 1 << 20 // 1MB

// invokeRequest is the body of POST /api/v1/invoke.
type invokeRequest struct {
	Tool      string     `json:"tool"`
	Arguments tools.Args `json:"arguments"`
}

func (s *Server) handleListTools(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": s.registry.Tools(),
	})
}

func (s *Server) handleInvoke(
	w http.ResponseWriter, r *http.Request,
) {
	var req invokeRequest
	body := http.MaxBytesReader(w, r.Body, maxInvokeBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, "missing tool name")
		return
	}
	s.invokeTool(w, r, req.Tool, req.Arguments)
}

// handleInvokeNamed invokes the tool named in the path. The body is
// the arguments object; an empty body means no arguments.
func (s *Server) handleInvokeNamed(
	w http.ResponseWriter, r *http.Request,
) {
	name := r.PathValue("name")

	args := tools.Args{}
	body := http.MaxBytesReader(w, r.Body, maxInvokeBody)
	if err := json.NewDecoder(body).Decode(&args); err != nil &&
		!errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.invokeTool(w, r, name, args)
}

func (s *Server) invokeTool(
	w http.ResponseWriter, r *http.Request,
	name string, args tools.Args,
) {
	res, err := s.registry.Invoke(r.Context(), s.db, name, args)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		out := tools.NewErrorResult(name, err)
		writeJSON(w, statusForCode(out.Error), out)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusForCode maps the error taxonomy to HTTP statuses. The two
// transient codes share 503 so clients retry both the same way.
func statusForCode(code string) int {
	switch code {
	case analytics.CodeInvalidParameter, analytics.CodeInvalidDateRange:
		return http.StatusBadRequest
	case analytics.CodeEmptyDataset:
		return http.StatusNotFound
	case analytics.CodeStorageUnavailable, analytics.CodeTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	events, err := s.db.CountEvents(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	apps, err := s.db.CountCatalog(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":          events,
		"catalog_entries": apps,
		"tools":           len(s.registry.Tools()),
	})
}
