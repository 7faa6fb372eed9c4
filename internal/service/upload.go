package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/promata/reservas-gateway/internal/observability"
	"github.com/promata/reservas-gateway/internal/upstream"
)

// DefaultMaxUploadBytes caps images and payment proofs forwarded to the backend.
const DefaultMaxUploadBytes = 5 * 1024 * 1024

var (
	// ErrUploadRequired indicates a mandatory file was not sent.
	ErrUploadRequired = errors.New("file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// Allowed upload kinds.
const (
	uploadImage = "image"
	uploadPDF   = "application/pdf"
)

// prepareUpload reads file, checks its size and sniffed type and returns it ready to be
// forwarded under field. A nil file yields ErrUploadRequired.
func prepareUpload(file *multipart.FileHeader, field string, maxSize int64, allowed ...string) (upstream.File, error) {
	if file == nil {
		return upstream.File{}, ErrUploadRequired
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadBytes
	}
	if file.Size > maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		return upstream.File{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return upstream.File{}, fmt.Errorf("open upload: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxSize+1)); err != nil {
		return upstream.File{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(buf.Len()) > maxSize {
		observability.UploadsRejected().WithLabelValues("size").Inc()
		return upstream.File{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if !allowedKind(normalizeMime(detected.String()), allowed) {
		observability.UploadsRejected().WithLabelValues("type").Inc()
		return upstream.File{}, ErrUploadTypeNotAllowed
	}

	return upstream.File{
		Field:       field,
		Name:        sanitizeFileName(file.Filename),
		ContentType: detected.String(),
		Data:        buf.Bytes(),
	}, nil
}

func allowedKind(kind string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == kind {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if strings.HasPrefix(lower, "image/") {
		return uploadImage
	}
	return lower
}
