package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
	"subburn/internal/services"
)

const (
	// RequestIDHeader carries the correlation id in both directions.
	RequestIDHeader = "X-Request-ID"
	// DefaultMaxUploadBytes caps the multipart body of an upload.
	DefaultMaxUploadBytes int64 = 4 << 30

	multipartMemory = 32 << 20
	outputMediaType = "video/mp4"
)

// Pipeline is the subset of *pipeline.Pipeline the handler calls.
type Pipeline interface {
	Accept(ctx context.Context, upload pipeline.Upload) (pipeline.Submission, error)
	Registry() jobs.Registry
	StorageDir() string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithMaxUploadBytes overrides DefaultMaxUploadBytes.
func WithMaxUploadBytes(limit int64) Option {
	return func(h *Handler) {
		if limit > 0 {
			h.maxUploadBytes = limit
		}
	}
}

// Handler serves the upload, status, and download endpoints.
type Handler struct {
	pipeline       Pipeline
	logger         *slog.Logger
	maxUploadBytes int64
	mux            *http.ServeMux
}

// NewHandler registers routes for p.
func NewHandler(p Pipeline, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		pipeline:       p,
		logger:         logging.NewComponentLogger(logger, "api"),
		maxUploadBytes: DefaultMaxUploadBytes,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("POST /upload", h.handleUpload)
	h.mux.HandleFunc("GET /status/{id}", h.handleStatus)
	h.mux.HandleFunc("GET /download/{file}", h.handleDownload)
	h.mux.HandleFunc("GET /jobs", h.handleJobs)
	return h
}

// ServeHTTP tags each request with a correlation id before routing it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	ctx := services.WithRequestID(r.Context(), requestID)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// Transcription runs to completion even if the client goes away.
	sub, err := h.pipeline.Accept(context.WithoutCancel(r.Context()), pipeline.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Language:    r.FormValue("lang"),
		Mode:        r.FormValue("mode"),
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, UploadResponse{JobID: sub.JobID})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.pipeline.Registry().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, FromJob(job))
}

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.pipeline.Registry().List(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	resp := JobListResponse{Jobs: make([]JobSummary, 0, len(list))}
	for _, job := range list {
		resp.Jobs = append(resp.Jobs, SummarizeJob(job))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	path, ok := resolveOutput(h.pipeline.StorageDir(), name)
	if !ok {
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", outputMediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// resolveOutput maps a download name onto a file directly inside storageDir.
// Names carrying path separators or parent references never resolve.
func resolveOutput(storageDir, name string) (string, bool) {
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(name), ".mp4") {
		return "", false
	}
	return filepath.Join(storageDir, name), true
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	message := err.Error()
	if errors.Is(err, services.ErrTranscription) {
		status = http.StatusInternalServerError
		message = "Transcription failed: " + err.Error()
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), h.logger), "request failed", "request_failed",
			logging.Error(err),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
	}
	h.writeError(w, status, message)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
