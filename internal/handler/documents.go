package handler

import (
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/upload"
)

// multipart bodies carry some form fields besides the file
const multipartOverhead = 1 << 20

// formFile parses a multipart request and returns the named file part.
// A missing part yields http.ErrMissingFile.
func (h *Handler) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	limit := h.config.Upload.MaxSize<<20 + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, upload.ErrFileTooLarge
		}
		return nil, nil, err
	}

	return r.FormFile(field)
}

// uploadError answers a failed upload.
func (h *Handler) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		h.errorResponse(w, r, "This file type is not allowed")
	case errors.Is(err, upload.ErrFileTooLarge):
		h.errorResponse(w, r, "The file is too large")
	case errors.Is(err, http.ErrMissingFile):
		h.errorResponse(w, r, "Please choose a file")
	case errors.Is(err, http.ErrNotMultipart):
		h.errorResponse(w, r, "Expected a multipart form")
	default:
		h.internalServerError(w, r, err)
	}
}

// serveFile streams a stored file as an attachment named filename.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, store *upload.Store, storedName, filename string) {
	f, err := store.Open(storedName)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	docs, err := h.repository.GetDocumentsByEventID(event.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched documents", docs)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	event := r.Context().Value(EventCtx).(*domain.Event)

	file, header, err := h.formFile(w, r, "file")
	if err != nil {
		h.uploadError(w, r, err)
		return
	}
	defer file.Close()

	storedName, err := h.documents.Save(header.Filename, file)
	if err != nil {
		h.uploadError(w, r, err)
		return
	}

	doc := &domain.Document{
		EventID:    event.ID,
		Filename:   header.Filename,
		StoredName: storedName,
		UploadedBy: &myInfo.ID,
	}

	if err := h.repository.CreateDocument(doc); err != nil {
		if rmErr := h.documents.Remove(storedName); rmErr != nil {
			slog.Warn("failed to remove orphaned document file", "file", storedName, "error", rmErr)
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Document uploaded", doc)
}

func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc := r.Context().Value(DocumentCtx).(*domain.Document)
	h.serveFile(w, r, h.documents, doc.StoredName, doc.Filename)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc := r.Context().Value(DocumentCtx).(*domain.Document)

	if err := h.repository.DeleteDocument(doc.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.documents.Remove(doc.StoredName); err != nil {
		slog.Warn("failed to remove document file", "documentID", doc.ID, "file", doc.StoredName, "error", err)
	}

	h.successResponse(w, r, "Document deleted", nil)
}
