package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	applog "propcrm/internal/log"
	"propcrm/internal/objectstore"
)

func (s *Server) handleExportListings(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Export.Backup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Backup exported",
		applog.FieldOperation, applog.OpExport,
		"rows", b.Rows)
	NewResponse().
		Header("Content-Disposition", `attachment; filename="`+b.Filename+`"`).
		Header("Cache-Control", "no-store").
		Text("text/csv; charset=utf-8", b.Body).
		Write(w)
}

// handleStorageObject streams a public object from the configured store.
func (s *Server) handleStorageObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if s.deps.Objects == nil || vars["bucket"] != s.deps.Objects.Bucket() {
		NotFoundError("no such bucket").Write(w)
		return
	}
	rc, contentType, err := s.deps.Objects.Open(r.Context(), vars["path"])
	switch {
	case errors.Is(err, objectstore.ErrNotFound):
		NotFoundError("no such object").Write(w)
		return
	case errors.Is(err, objectstore.ErrInvalidPath):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Object read failed",
			applog.FieldComponent, applog.ComponentObjects,
			applog.FieldPath, vars["path"],
			applog.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "object storage unavailable").Write(w)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if rs, ok := rc.(io.ReadSeeker); ok {
		if size, err := rs.Seek(0, io.SeekEnd); err == nil {
			if _, err := rs.Seek(0, io.SeekStart); err == nil {
				w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
			}
		}
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, rc)
}
