// internal/workers/onboarding/submit-application/parse.go
package submitapplication

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/models"
)

// parseSubmission streams a multipart form into a submission, spooling file
// parts to temp files. The returned cleanup removes every spooled file and is
// safe to call after individual files were already removed.
func parseSubmission(w http.ResponseWriter, r *http.Request, cfg *Config) (*models.FormSubmission, func(), error) {
	sub := &models.FormSubmission{Fields: make(map[string]string)}
	cleanup := func() {
		for _, f := range sub.Files {
			_ = os.Remove(f.Path)
		}
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, cleanup, apperrors.NewBadRequestError("Expected multipart/form-data request")
	}

	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, cleanup, apperrors.NewBadRequestError("Invalid multipart request: " + err.Error())
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, cleanup, badPart(err)
		}

		if part.FileName() != "" {
			file, err := spool(part, cfg)
			part.Close()
			if err != nil {
				return nil, cleanup, err
			}
			sub.Files = append(sub.Files, *file)
			continue
		}

		name := part.FormName()
		value, err := readField(part, cfg.MaxFieldBytes)
		part.Close()
		if err != nil {
			return nil, cleanup, err
		}
		if name == "" {
			continue
		}

		switch name {
		case fieldApplicant:
			if sub.ApplicantType == "" {
				sub.ApplicantType = value
			}
		case fieldSignature:
			if sub.SignatureData == "" {
				sub.SignatureData = value
			}
		default:
			if _, seen := sub.Fields[name]; !seen {
				sub.Fields[name] = value
			}
		}
	}

	return sub, cleanup, nil
}

func readField(part *multipart.Part, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return "", badPart(err)
	}
	if int64(len(data)) > limit {
		return "", apperrors.NewBadRequestError(fmt.Sprintf("Field %s exceeds the maximum size", part.FormName()))
	}
	return string(data), nil
}

func spool(part *multipart.Part, cfg *Config) (*models.UploadedFile, error) {
	name := filepath.Base(part.FileName())
	tmp, err := os.CreateTemp(cfg.TempDir, "onboarding-upload-*")
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("create temp file: %w", err))
	}

	n, err := io.Copy(tmp, io.LimitReader(part, cfg.MaxFileBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return nil, badPart(err)
	}
	if n > cfg.MaxFileBytes {
		_ = os.Remove(tmp.Name())
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("File %s exceeds the maximum size of %d bytes", name, cfg.MaxFileBytes))
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &models.UploadedFile{
		Name:        name,
		Path:        tmp.Name(),
		Size:        n,
		ContentType: contentType,
	}, nil
}

func badPart(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.NewBadRequestError(fmt.Sprintf("Request exceeds the maximum size of %d bytes", maxErr.Limit))
	}
	return apperrors.NewBadRequestError("Invalid multipart request: " + err.Error())
}
