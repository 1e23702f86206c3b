package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	applog "propcrm/internal/log"
	"propcrm/internal/services"
)

func (s *Server) handleWorkQueue(w http.ResponseWriter, r *http.Request) {
	f, err := QueueFilterFromQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	q, err := s.deps.Listings.WorkQueue(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkQueueJSON(q))
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	l, err := req.toListing()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Listings.Create(r.Context(), l)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingJSON(created))
}

func (s *Server) handleQuickCapture(w http.ResponseWriter, r *http.Request) {
	var req quickCaptureRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		UnprocessableEntityError("text is required").Write(w)
		return
	}
	created, err := s.deps.Listings.QuickCapture(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingJSON(created))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Listings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingDetailJSON(d))
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var patch services.ListingPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	updated, err := s.deps.Listings.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingJSON(updated))
}

func (s *Server) handleMarkProcessed(w http.ResponseWriter, r *http.Request) {
	updated, err := s.deps.Listings.MarkProcessed(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingJSON(updated))
}

func (s *Server) handleTenantText(w http.ResponseWriter, r *http.Request) {
	text, err := s.deps.Listings.TenantText(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Text("text/plain; charset=utf-8", text).Write(w)
}

func (s *Server) handleUpsertDeal(w http.ResponseWriter, r *http.Request) {
	var in services.DealInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.Notes = sanitizeInput(in.Notes)
	d, err := s.deps.Listings.UpsertDeal(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dealWithIncomeJSON{Deal: toDealJSON(d), Income: d.Income()})
}

// handleUploadPhoto accepts a multipart form with the image in the "file"
// field.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBody)
	if err := r.ParseMultipartForm(maxPhotoBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "photo exceeds 10 MB").Write(w)
			return
		}
		BadRequestError("expected multipart form with a file field").Write(w)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("missing file field").Write(w)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		BadRequestError("could not read upload").Write(w)
		return
	}
	if len(data) == 0 {
		UnprocessableEntityError("empty file").Write(w)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		UnprocessableEntityError("only image uploads are accepted").Write(w)
		return
	}

	p, err := s.deps.Listings.AddPhoto(r.Context(), mux.Vars(r)["id"], header.Filename, contentType, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPhotoJSON(p))
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := s.deps.Listings.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.DebugContext(r.Context(), "Delete request served",
		applog.FieldListingID, id,
		applog.FieldPhotos, removed)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "removed_photos": removed})
}
