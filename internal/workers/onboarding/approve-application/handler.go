// internal/workers/onboarding/approve-application/handler.go
package approveapplication

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"client-onboarding/internal/common/docstore"
	apperrors "client-onboarding/internal/common/errors"
	httpx "client-onboarding/internal/common/http"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/metrics"
	"client-onboarding/internal/common/observability"
	"client-onboarding/internal/common/render"
	"client-onboarding/internal/common/validation"
	"client-onboarding/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "approve-application"
	workflow = "approve"
)

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"clientFolder": {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"required": ["clientFolder"]
}`)

type Dependencies struct {
	Store         docstore.Store
	Renderer      *render.Renderer
	Observability *observability.Observability
}

type Handler struct {
	config       *Config
	deps         Dependencies
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		deps:         deps,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

// ServeHTTP serves the one-click approval link.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	folder := strings.TrimSpace(r.URL.Query().Get(queryClient))
	if folder == "" {
		metrics.ApprovalsTotal.WithLabelValues(sourceHTTP, "invalid").Inc()
		httpx.WriteHTML(w, http.StatusBadRequest, renderError("Approval Error", MsgInvalidLink, ""))
		return
	}

	output, err := h.execute(r.Context(), folder, sourceHTTP)
	if err != nil {
		httpx.WriteHTML(w, http.StatusInternalServerError, renderError(
			"Approval Error",
			"There was an error processing the approval.",
			apperrors.Describe(err, h.config.ExposeErrorDetails),
		))
		return
	}
	httpx.WriteHTML(w, http.StatusOK, renderApproved(output))
}

// Handle runs the approval as a workflow job.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseJobInput(job.Variables)
	if err != nil {
		metrics.ApprovalsTotal.WithLabelValues(sourceZeebe, "invalid").Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input.ClientFolder, sourceZeebe)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}
	h.completeJob(ctx, client, job, output)
}

func parseJobInput(variables string) (*Input, error) {
	result, err := inputSchema.ValidateBytes([]byte(variables))
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid job variables")
	}
	if !result.Valid {
		if result.HasField("clientFolder") {
			return nil, apperrors.NewBadRequestError(TaskType + " requires clientFolder")
		}
		return nil, apperrors.NewBadRequestError("Invalid job variables")
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewBadRequestError("Invalid job variables")
	}
	input.ClientFolder = strings.TrimSpace(input.ClientFolder)
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, folder, source string) (*Output, error) {
	log := logger.ForRequest(ctx, h.logger, map[string]interface{}{"taskType": TaskType}).
		WithFields(map[string]interface{}{"clientFolder": folder, "source": source})
	log.Info("approving application", nil)

	var output *Output
	err := h.deps.Observability.Step(ctx, workflow, "certificate", func(ctx context.Context) error {
		cert, data, err := h.deps.Renderer.ApprovalCertificate(folder)
		if err != nil {
			return err
		}
		url, err := h.deps.Store.Upload(ctx, bytes.NewReader(data), int64(len(data)), models.LegalApprovalFile, folder)
		metrics.DocumentsTotal.WithLabelValues(models.LegalApprovalFile, metrics.Status(err)).Inc()
		if err != nil {
			return err
		}
		output = &Output{
			ClientFolder:   folder,
			CertificateURL: url,
			Reference:      cert.Reference,
			ApprovedAt:     cert.ApprovedAt.UTC().Format(time.RFC3339),
		}
		return nil
	})
	metrics.ApprovalsTotal.WithLabelValues(source, metrics.Status(err)).Inc()
	if err != nil {
		log.Error("approval failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	log.Info("application approved", map[string]interface{}{"reference": output.Reference})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Execute approves folder without an HTTP or job context.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.ClientFolder) == "" {
		return nil, apperrors.NewBadRequestError(MsgInvalidLink)
	}
	return h.execute(ctx, strings.TrimSpace(input.ClientFolder), sourceHTTP)
}
