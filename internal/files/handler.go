// Package files exposes the HTTP gateway over the object store: upload,
// download, delete, metadata, presigned-URL, and health endpoints.
package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bucketbridge/service/internal/response"
	"github.com/bucketbridge/service/internal/storage"
)

// downloadChunkSize bounds the copy buffer used to forward object bytes to
// the HTTP response; the whole object is never held in memory.
const downloadChunkSize = 8192

// Handler holds HTTP handlers for file storage endpoints.
type Handler struct {
	store storage.ObjectStore
}

// NewHandler creates a new files Handler backed by the given store.
func NewHandler(store storage.ObjectStore) *Handler {
	return &Handler{store: store}
}

// Register mounts all file and health routes onto r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/files", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/presign-upload", h.PresignUpload)
		r.Post("/presign-download", h.PresignDownload)
		r.Get("/{key}", h.Download)
		r.Delete("/{key}", h.Delete)
		r.Get("/{key}/metadata", h.Metadata)
	})
}

// UploadResponse is the body returned after a successful upload.
type UploadResponse struct {
	Message     string `json:"message"`
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Streams a multipart file upload into the object store.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File contents"
//	@Param			key		query		string	false	"Object key. Defaults to the uploaded filename."
//	@Success		200		{object}	UploadResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/files/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		response.BadRequest(w, "expected multipart/form-data body")
		return
	}

	queryKey := strings.TrimSpace(r.URL.Query().Get("key"))

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			response.BadRequest(w, "malformed multipart body")
			return
		}
		if part.FormName() != "file" {
			continue
		}

		filename := part.FileName()
		key := queryKey
		if key == "" {
			key = filename
		}
		if key == "" {
			response.BadRequest(w, "no filename provided and no key specified")
			return
		}

		contentType := part.Header.Get("Content-Type")
		if contentType == "" {
			contentType = defaultContentType
		}

		// Size is unknown for a multipart stream; the store splits it into
		// fixed-size parts on its own.
		if err := h.store.Put(r.Context(), key, part, -1, contentType); err != nil {
			response.InternalError(w, "upload failed: "+err.Error())
			return
		}

		response.OK(w, UploadResponse{
			Message:     "File uploaded successfully",
			Key:         key,
			Filename:    filename,
			ContentType: contentType,
		})
		return
	}

	response.BadRequest(w, "missing file part")
}

// Download godoc
//
//	@Summary		Download a file
//	@Description	Streams the object at key back to the client as an attachment.
//	@Tags			files
//	@Produce		application/octet-stream
//	@Param			key	path	string	true	"Object key"
//	@Success		200	{file}		file
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/files/{key} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, info, err := h.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "file not found")
			return
		}
		response.InternalError(w, "download failed: "+err.Error())
		return
	}
	defer func() {
		_ = body.Close()
	}()

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key))
	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}

	// A failed copy cannot change the status anymore; the client simply
	// receives truncated output and the deferred close releases the stream.
	if _, err := io.CopyBuffer(w, body, make([]byte, downloadChunkSize)); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("download stream interrupted")
	}
}

// DeleteResponse is the body returned after a successful delete.
type DeleteResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

// Delete godoc
//
//	@Summary		Delete a file
//	@Description	Removes the object at key from the store.
//	@Tags			files
//	@Produce		json
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	DeleteResponse
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/files/{key} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "file not found")
			return
		}
		response.InternalError(w, "delete failed: "+err.Error())
		return
	}

	response.OK(w, DeleteResponse{
		Message: "File deleted successfully",
		Key:     key,
	})
}

// MetadataResponse is the body returned by the metadata endpoint.
type MetadataResponse struct {
	Key           string `json:"key"`
	ContentLength int64  `json:"content_length"`
	ContentType   string `json:"content_type"`
	ETag          string `json:"etag"`
	LastModified  string `json:"last_modified"`
}

// Metadata godoc
//
//	@Summary		Get file metadata
//	@Description	Returns size, content type, etag, and modification time without the contents.
//	@Tags			files
//	@Produce		json
//	@Param			key	path		string	true	"Object key"
//	@Success		200	{object}	MetadataResponse
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/files/{key}/metadata [get]
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	info, err := h.store.Stat(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "file not found")
			return
		}
		response.InternalError(w, "metadata lookup failed: "+err.Error())
		return
	}

	response.OK(w, MetadataResponse{
		Key:           info.Key,
		ContentLength: info.Size,
		ContentType:   info.ContentType,
		ETag:          info.ETag,
		LastModified:  formatTimestamp(info.LastModified),
	})
}

// PresignResponse is the body returned by both presign endpoints.
type PresignResponse struct {
	Key       string            `json:"key"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt string            `json:"expires_at"`
}

// PresignUpload godoc
//
//	@Summary		Create a presigned upload URL
//	@Description	Returns a time-limited PUT URL plus the headers the uploader must send.
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		presignUploadRequest	true	"Presign request"
//	@Success		200		{object}	PresignResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		422		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/files/presign-upload [post]
func (h *Handler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		response.UnprocessableEntity(w, errs)
		return
	}

	key := strings.TrimSpace(req.Key)
	ttl := expiry(req.ExpiresIn)

	u, err := h.store.PresignPut(r.Context(), key, ttl)
	if err != nil {
		response.InternalError(w, "presign failed: "+err.Error())
		return
	}

	headers := map[string]string{
		"Content-Length": strconv.FormatInt(req.ContentLength, 10),
	}
	if ct := strings.TrimSpace(req.ContentType); ct != "" {
		headers["Content-Type"] = ct
	}

	response.OK(w, PresignResponse{
		Key:       key,
		URL:       u.String(),
		Method:    http.MethodPut,
		Headers:   headers,
		ExpiresAt: formatTimestamp(time.Now().Add(ttl)),
	})
}

// PresignDownload godoc
//
//	@Summary		Create a presigned download URL
//	@Description	Returns a time-limited GET URL, optionally overriding disposition and content type.
//	@Tags			files
//	@Accept			json
//	@Produce		json
//	@Param			body	body		presignDownloadRequest	true	"Presign request"
//	@Success		200		{object}	PresignResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		404		{object}	response.ErrorBody
//	@Failure		422		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/files/presign-download [post]
func (h *Handler) PresignDownload(w http.ResponseWriter, r *http.Request) {
	var req presignDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		response.UnprocessableEntity(w, errs)
		return
	}

	key := strings.TrimSpace(req.Key)
	ttl := expiry(req.ExpiresIn)
	disposition := contentDisposition(req.normalizedDisposition(), req.Filename, key)
	overrideType := strings.TrimSpace(req.ContentType)

	u, err := h.store.PresignGet(r.Context(), key, ttl, disposition, overrideType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w, "file not found")
			return
		}
		response.InternalError(w, "presign failed: "+err.Error())
		return
	}

	headers := map[string]string{}
	if disposition != "" {
		headers["Content-Disposition"] = disposition
	}
	if overrideType != "" {
		headers["Content-Type"] = overrideType
	}

	response.OK(w, PresignResponse{
		Key:       key,
		URL:       u.String(),
		Method:    http.MethodGet,
		Headers:   headers,
		ExpiresAt: formatTimestamp(time.Now().Add(ttl)),
	})
}

// HealthResponse is the body returned by a passing health check.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// Health godoc
//
//	@Summary		Health check
//	@Description	Verifies object store connectivity with a bounded listing.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	response.ErrorBody
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.store.Health(r.Context()) {
		response.ServiceUnavailable(w, "object store connection unhealthy")
		return
	}
	response.OK(w, HealthResponse{OK: true})
}

// formatTimestamp renders t as ISO-8601 UTC with a trailing Z and no
// fractional seconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
