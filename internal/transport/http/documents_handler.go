package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "anyumarket/internal/errors"
	"anyumarket/internal/services"
)

var contentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain; charset=utf-8",
}

// DocumentsHandler serves the report listing, catalog and downloads
type DocumentsHandler struct {
	service      DocumentServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDocumentsHandler creates a documents handler
func NewDocumentsHandler(service DocumentServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DocumentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "documents_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes mounts the document routes on r
func (h *DocumentsHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/api/documents", h.ListDocuments)
		r.Get("/api/catalog", h.GetCatalog)
	})
	r.Get("/download/{filename}", h.Download)
}

// ListDocuments handles GET /api/documents
func (h *DocumentsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"success":   true,
		"timestamp": time.Now().Format(time.RFC3339),
		"documents": docs,
	})
}

// GetCatalog handles GET /api/catalog
func (h *DocumentsHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, catalog)
}

// Download handles GET /download/{filename}
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	filename, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("filename", "Malformed file name"))
		return
	}

	h.logger.InfoContext(r.Context(), "downloading file",
		slog.String("request_id", reqID),
		slog.String("filename", filename))

	path, err := h.service.Resolve(r.Context(), filename)
	if err != nil {
		h.handleResolveError(w, r, filename, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("open", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("stat", err))
		return
	}

	contentType, ok := contentTypes[filepath.Ext(filename)]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func (h *DocumentsHandler) handleResolveError(w http.ResponseWriter, r *http.Request, filename string, err error) {
	switch {
	case errors.Is(err, services.ErrForbiddenPath):
		h.errorHandler.HandleError(w, r, apierrors.ForbiddenError("path outside the reports directory"))
	case errors.Is(err, services.ErrInvalidFileType):
		h.errorHandler.HandleError(w, r, apierrors.ForbiddenError("file type not allowed"))
	case errors.Is(err, services.ErrFileNotFound):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("File '%s'", filename)))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
