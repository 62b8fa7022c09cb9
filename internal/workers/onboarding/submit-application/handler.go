// internal/workers/onboarding/submit-application/handler.go
package submitapplication

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"client-onboarding/internal/common/docstore"
	apperrors "client-onboarding/internal/common/errors"
	httpx "client-onboarding/internal/common/http"
	"client-onboarding/internal/common/lock"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/metrics"
	"client-onboarding/internal/common/notify"
	"client-onboarding/internal/common/observability"
	"client-onboarding/internal/common/render"
	"client-onboarding/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "submit-application"
	workflow = "submit"
)

type Dependencies struct {
	Store         docstore.Store
	Renderer      *render.Renderer
	Notifier      notify.Notifier
	Locker        lock.Locker
	Observability *observability.Observability
}

type Handler struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	if deps.Locker == nil {
		deps.Locker = lock.NewMemoryLocker()
	}
	return &Handler{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub, cleanup, err := parseSubmission(w, r, h.config)
	defer cleanup()
	if err != nil {
		status := apperrors.HTTPStatus(apperrors.CodeOf(err))
		if status != http.StatusBadRequest {
			metrics.SubmissionsTotal.WithLabelValues(metrics.StatusFailure).Inc()
			h.logger.Error("reading submission failed", map[string]interface{}{"error": err})
			httpx.WriteJSON(w, status, ErrorResponse{
				Success: false,
				Message: MsgErrorPrefix + apperrors.Describe(err, h.config.ExposeErrorDetails),
			})
			return
		}
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		h.logger.Warn("invalid submission", map[string]interface{}{"error": err.Error()})
		httpx.WriteJSON(w, status, ErrorResponse{Success: false, Message: err.Error()})
		return
	}

	output, err := h.execute(r.Context(), sub)
	if err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			httpx.WriteJSON(w, http.StatusConflict, DuplicateResponse{
				Success:         false,
				Duplicate:       true,
				Message:         dup.Message,
				ExistingFolders: dup.Folders,
			})
			return
		}
		httpx.WriteJSON(w, apperrors.HTTPStatus(apperrors.CodeOf(err)), ErrorResponse{
			Success: false,
			Message: MsgErrorPrefix + apperrors.Describe(err, h.config.ExposeErrorDetails),
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, sub *models.FormSubmission) (*Output, error) {
	clientName := sub.ClientName()
	log := logger.ForRequest(ctx, h.logger, map[string]interface{}{"taskType": TaskType}).
		WithFields(map[string]interface{}{"clientName": clientName})

	unlock, err := h.deps.Locker.Acquire(ctx, models.LockKey(clientName))
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		log.Error("client lock failed", map[string]interface{}{"error": err})
		return nil, err
	}
	defer unlock()

	var decision models.FolderDecision
	err = h.deps.Observability.Step(ctx, workflow, "resolve-folder", func(ctx context.Context) error {
		matches, err := h.deps.Store.FindFolders(ctx, clientName)
		if err != nil {
			return err
		}
		decision = models.ResolveFolder(clientName, matches, sub.AllowDuplicate(), h.deps.Renderer.Now())
		return nil
	})
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, err
	}

	if decision.Outcome == models.OutcomeRejected {
		metrics.SubmissionsTotal.WithLabelValues(string(models.OutcomeRejected)).Inc()
		log.Info("duplicate submission rejected", map[string]interface{}{"matches": len(decision.Matches)})
		return nil, newDuplicateError(clientName, decision.Matches)
	}

	folder := decision.Folder
	log = log.WithFields(map[string]interface{}{"clientFolder": folder, "outcome": string(decision.Outcome)})
	log.Info("processing submission", map[string]interface{}{"files": len(sub.Files)})

	output, err := h.process(ctx, sub, clientName, decision, log)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		log.Error("submission failed", map[string]interface{}{"error": err})
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues(string(decision.Outcome)).Inc()
	log.Info("submission completed", map[string]interface{}{"link": output.SharePointLink})
	return output, nil
}

func (h *Handler) process(ctx context.Context, sub *models.FormSubmission, clientName string, decision models.FolderDecision, log logger.Logger) (*Output, error) {
	folder := decision.Folder
	uploads := h.uploadFiles(ctx, folder, sub.Files, log)
	link := h.folderLink(folder, uploads)

	err := h.deps.Observability.Step(ctx, workflow, "client-information", func(ctx context.Context) error {
		data, err := h.deps.Renderer.ClientInformation(sub, folder)
		if err != nil {
			return err
		}
		return h.persist(ctx, data, models.ClientInformationFile, folder)
	})
	if err != nil {
		return nil, err
	}

	if decision.Outcome == models.OutcomeResubmission {
		err := h.deps.Observability.Step(ctx, workflow, "resubmission-tracking", func(ctx context.Context) error {
			data, err := h.deps.Renderer.ResubmissionTracking(clientName, h.trackingEntries(ctx, folder, log))
			if err != nil {
				return err
			}
			return h.persist(ctx, data, models.ResubmissionTrackingFile, folder)
		})
		if err != nil {
			return nil, err
		}
	}

	err = h.deps.Observability.Step(ctx, workflow, "notify", func(ctx context.Context) error {
		return h.notify(ctx, sub, clientName, folder, link)
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Success:        true,
		Message:        MsgSubmitted,
		ClientFolder:   folder,
		UploadedFiles:  uploads,
		SharePointLink: link,
	}, nil
}

// uploadFiles uploads every attachment concurrently. A failed upload is
// recorded in its result and never stops the others.
func (h *Handler) uploadFiles(ctx context.Context, folder string, files []models.UploadedFile, log logger.Logger) []UploadResult {
	results := make([]UploadResult, len(files))
	var g errgroup.Group
	if h.config.UploadConcurrency > 0 {
		g.SetLimit(h.config.UploadConcurrency)
	}

	for i, file := range files {
		g.Go(func() error {
			defer func() { _ = os.Remove(file.Path) }()

			url, err := h.uploadFile(ctx, folder, file)
			metrics.UploadsTotal.WithLabelValues(metrics.Status(err)).Inc()
			if err != nil {
				log.Warn("attachment upload failed", map[string]interface{}{"file": file.Name, "error": err.Error()})
				results[i] = UploadResult{File: file.Name, Error: err.Error()}
				return nil
			}
			log.Debug("attachment uploaded", map[string]interface{}{"file": file.Name})
			results[i] = UploadResult{File: file.Name, URL: url}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (h *Handler) uploadFile(ctx context.Context, folder string, file models.UploadedFile) (string, error) {
	var url string
	err := h.deps.Observability.Step(ctx, workflow, "upload", func(ctx context.Context) error {
		f, err := os.Open(file.Path)
		if err != nil {
			return apperrors.NewUploadFailedError(file.Name, err)
		}
		defer f.Close()

		url, err = h.deps.Store.Upload(ctx, f, file.Size, file.Name, folder)
		return err
	})
	return url, err
}

func (h *Handler) folderLink(folder string, uploads []UploadResult) string {
	for _, u := range uploads {
		if u.URL != "" {
			return models.FolderLink(u.URL)
		}
	}
	return models.FallbackFolderLink(h.config.SiteURL, h.config.SiteName, h.config.DocumentLibrary, folder)
}

func (h *Handler) persist(ctx context.Context, data []byte, fileName, folder string) error {
	_, err := h.deps.Store.Upload(ctx, bytes.NewReader(data), int64(len(data)), fileName, folder)
	metrics.DocumentsTotal.WithLabelValues(fileName, metrics.Status(err)).Inc()
	return err
}

// trackingEntries builds the submission history. The creation time of an
// existing tracking document becomes the original submission; lookup failures
// only drop that entry.
func (h *Handler) trackingEntries(ctx context.Context, folder string, log logger.Logger) []render.TrackingEntry {
	r := h.deps.Renderer
	var entries []render.TrackingEntry

	items, err := h.deps.Store.ListChildren(ctx, folder)
	if err != nil {
		log.Warn("could not retrieve existing tracking data", map[string]interface{}{"error": err.Error()})
	}
	for _, item := range items {
		if item.Name != models.ResubmissionTrackingFile {
			continue
		}
		if created, err := time.Parse(time.RFC3339, item.CreatedDate); err == nil {
			entries = append(entries, render.TrackingEntry{
				Date: r.TrackingDate(created, false),
				Note: render.NoteOriginalSubmission,
			})
		}
		break
	}

	return append(entries, render.TrackingEntry{
		Date: r.TrackingDate(r.Now(), true),
		Note: render.NoteResubmission,
	})
}

func (h *Handler) notify(ctx context.Context, sub *models.FormSubmission, clientName, folder, link string) error {
	email := notify.ApprovalEmail{
		ClientName:      clientName,
		ApplicationType: sub.ApplicationType(),
		Folder:          folder,
		FolderLink:      link,
		BaseURL:         h.config.BaseURL,
		SubmittedAt:     h.deps.Renderer.Now(),
		Location:        h.deps.Renderer.Location(),
	}
	subject, body, err := email.Render()
	if err != nil {
		return apperrors.NewNotifyFailedError("template", err)
	}

	err = h.deps.Notifier.Notify(ctx, subject, body)
	metrics.NotificationsTotal.WithLabelValues(metrics.Status(err)).Inc()
	return err
}

// Execute runs the workflow for an already parsed submission.
func (h *Handler) Execute(ctx context.Context, sub *models.FormSubmission) (*Output, error) {
	if sub == nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("%s requires a submission", TaskType))
	}
	return h.execute(ctx, sub)
}
