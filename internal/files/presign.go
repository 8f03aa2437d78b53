package files

import (
	"fmt"
	"strings"
	"time"

	"github.com/bucketbridge/service/internal/response"
)

const (
	defaultExpirySeconds = 900
	maxExpirySeconds     = 604800 // 7 days

	defaultContentType = "application/octet-stream"
)

// presignUploadRequest is the body of POST /files/presign-upload.
type presignUploadRequest struct {
	Key           string `json:"key"`
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length"`
	ExpiresIn     *int64 `json:"expires_in,omitempty"`
}

func (req *presignUploadRequest) validate() []response.FieldError {
	var errs []response.FieldError
	if strings.TrimSpace(req.Key) == "" {
		errs = append(errs, response.FieldError{Field: "key", Reason: "must be a non-empty string"})
	}
	if req.ContentLength <= 0 {
		errs = append(errs, response.FieldError{Field: "content_length", Reason: "must be a positive integer"})
	}
	if fe := validateExpiresIn(req.ExpiresIn); fe != nil {
		errs = append(errs, *fe)
	}
	return errs
}

// presignDownloadRequest is the body of POST /files/presign-download.
type presignDownloadRequest struct {
	Key         string `json:"key"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

func (req *presignDownloadRequest) validate() []response.FieldError {
	var errs []response.FieldError
	if strings.TrimSpace(req.Key) == "" {
		errs = append(errs, response.FieldError{Field: "key", Reason: "must be a non-empty string"})
	}
	if d := req.normalizedDisposition(); d != "" && d != "inline" && d != "attachment" {
		errs = append(errs, response.FieldError{Field: "disposition", Reason: `must be "inline" or "attachment"`})
	}
	if fe := validateExpiresIn(req.ExpiresIn); fe != nil {
		errs = append(errs, *fe)
	}
	return errs
}

// normalizedDisposition lowercases the requested disposition token.
func (req *presignDownloadRequest) normalizedDisposition() string {
	return strings.ToLower(strings.TrimSpace(req.Disposition))
}

func validateExpiresIn(v *int64) *response.FieldError {
	if v == nil {
		return nil
	}
	if *v <= 0 || *v > maxExpirySeconds {
		return &response.FieldError{
			Field:  "expires_in",
			Reason: fmt.Sprintf("must be between 1 and %d seconds", maxExpirySeconds),
		}
	}
	return nil
}

// expiry converts the optional expires_in field to a duration, applying the
// default when the field was absent. Call validate first.
func expiry(v *int64) time.Duration {
	seconds := int64(defaultExpirySeconds)
	if v != nil {
		seconds = *v
	}
	return time.Duration(seconds) * time.Second
}

// contentDisposition builds the Content-Disposition value for a download
// grant. The filename falls back to the last path segment of the key; when
// that is also empty the disposition token stands alone.
func contentDisposition(disposition, filename, key string) string {
	if disposition == "" {
		return ""
	}
	name := strings.TrimSpace(filename)
	if name == "" {
		segments := strings.Split(key, "/")
		name = strings.TrimSpace(segments[len(segments)-1])
	}
	if name == "" {
		return disposition
	}
	return fmt.Sprintf("%s; filename=%q", disposition, name)
}
