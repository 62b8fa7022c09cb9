// internal/workers/onboarding/check-duplicate/models.go
package checkduplicate

import "client-onboarding/internal/models"

type Input struct {
	ClientName string `json:"clientName"`
}

type Output struct {
	Exists          bool               `json:"exists"`
	Message         string             `json:"message"`
	ExistingFolders []models.DriveItem `json:"existingFolders,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	MsgNameRequired = "Client name is required"
	MsgNotExists    = "Client does not exist"
)
