// internal/workers/onboarding/submit-application/models.go
package submitapplication

import (
	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/models"
)

// UploadResult reports one attachment: URL on success, Error otherwise.
type UploadResult struct {
	File  string `json:"file"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

type Output struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	ClientFolder   string         `json:"clientFolder"`
	UploadedFiles  []UploadResult `json:"uploadedFiles"`
	SharePointLink string         `json:"sharePointLink"`
}

type DuplicateResponse struct {
	Success         bool               `json:"success"`
	Duplicate       bool               `json:"duplicate"`
	Message         string             `json:"message"`
	ExistingFolders []models.DriveItem `json:"existingFolders"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	MsgSubmitted   = "Application submitted successfully"
	MsgErrorPrefix = "Error processing submission: "
	fieldApplicant = "applicantType"
	fieldSignature = "signatureData"
)

// DuplicateError rejects a submission whose client already has folders.
type DuplicateError struct {
	*apperrors.StandardError
	Folders []models.DriveItem
}

func newDuplicateError(clientName string, folders []models.DriveItem) *DuplicateError {
	return &DuplicateError{StandardError: apperrors.NewDuplicateClientError(clientName), Folders: folders}
}
