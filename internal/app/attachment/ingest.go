package attachment

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

var (
	// ErrNotMultipart is returned when the request body is not
	// multipart/form-data.
	ErrNotMultipart = errors.New("request body is not multipart/form-data")
	// ErrNoFiles is returned when a multipart body contains no file parts.
	ErrNoFiles = errors.New("multipart body contains no files")
	// ErrTooManyFiles is returned when a batch exceeds the configured limit.
	ErrTooManyFiles = errors.New("too many files in upload")
	// ErrFileTooLarge is returned when a single file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// IngestLimits bounds a multipart upload batch. Zero values disable the
// corresponding check.
type IngestLimits struct {
	MaxFileSize int64
	MaxFiles    int
}

// ReadParts decodes every file part of a multipart request body into memory.
// Non-file form fields are skipped. The request Content-Type is validated
// before any part is read, so a non-multipart body never reaches storage.
func ReadParts(r *http.Request, limits IngestLimits) ([]FilePayload, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return nil, ErrNotMultipart
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, ErrNotMultipart
	}

	reader := multipart.NewReader(r.Body, boundary)
	var payloads []FilePayload
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}

		fileName, isFile := partFileName(part)
		if !isFile {
			part.Close()
			continue
		}
		// A file part with a blank filename keeps the form field name.
		if fileName == "" {
			fileName = part.FormName()
		}

		if limits.MaxFiles > 0 && len(payloads) >= limits.MaxFiles {
			part.Close()
			return nil, ErrTooManyFiles
		}

		data, err := readPart(part, limits.MaxFileSize)
		part.Close()
		if err != nil {
			return nil, err
		}

		payloads = append(payloads, FilePayload{
			FieldName:   part.FormName(),
			FileName:    fileName,
			ContentType: partContentType(part),
			Data:        data,
		})
	}

	if len(payloads) == 0 {
		return nil, ErrNoFiles
	}
	return payloads, nil
}

func readPart(part *multipart.Part, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		return io.ReadAll(part)
	}
	data, err := io.ReadAll(io.LimitReader(part, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read multipart part: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, part.FileName())
	}
	return data, nil
}

func partContentType(part *multipart.Part) string {
	ct := part.Header.Get("Content-Type")
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

// partFileName reports whether the part is a file part. File parts carry a
// filename parameter in their Content-Disposition, plain form values do not.
func partFileName(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	name, ok := params["filename"]
	return name, ok
}
