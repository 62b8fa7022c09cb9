// internal/workers/onboarding/check-duplicate/handler.go
package checkduplicate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"client-onboarding/internal/common/docstore"
	apperrors "client-onboarding/internal/common/errors"
	httpx "client-onboarding/internal/common/http"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/validation"
)

const TaskType = "check-duplicate"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"clientName": {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"required": ["clientName"]
}`)

type Handler struct {
	config *Config
	store  docstore.Store
	logger logger.Logger
}

func NewHandler(config *Config, store docstore.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.config.MaxBodyBytes))
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	input, err := parseInput(body)
	if err != nil {
		h.logger.Warn("invalid duplicate check request", map[string]interface{}{"error": err.Error()})
		httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	output, err := h.execute(r.Context(), input)
	if err != nil {
		httpx.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Error checking for duplicate client: " + apperrors.Describe(err, h.config.ExposeErrorDetails),
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, output)
}

func parseInput(body []byte) (*Input, error) {
	result, err := inputSchema.ValidateBytes(body)
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid JSON body")
	}
	if !result.Valid {
		return nil, apperrors.NewBadRequestError(MsgNameRequired)
	}

	var input Input
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, apperrors.NewBadRequestError("Invalid JSON body")
	}
	input.ClientName = strings.TrimSpace(input.ClientName)
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ClientName == "" {
		return nil, apperrors.NewBadRequestError(MsgNameRequired)
	}

	log := logger.ForRequest(ctx, h.logger, map[string]interface{}{"taskType": TaskType})
	folders, err := h.store.FindFolders(ctx, input.ClientName)
	if err != nil {
		log.Error("duplicate check failed", map[string]interface{}{
			"clientName": input.ClientName,
			"error":      err,
		})
		return nil, err
	}

	log.Info("duplicate check completed", map[string]interface{}{
		"clientName": input.ClientName,
		"matches":    len(folders),
	})

	if len(folders) == 0 {
		return &Output{Exists: false, Message: MsgNotExists}, nil
	}
	return &Output{
		Exists:          true,
		Message:         fmt.Sprintf("Client \"%s\" already exists in SharePoint", input.ClientName),
		ExistingFolders: folders,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
