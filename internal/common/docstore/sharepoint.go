package docstore

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/common/graph"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/models"
)

// graphAPI is the subset of the Graph client used by SharePointStore.
type graphAPI interface {
	GetSiteByPath(ctx context.Context, hostname, sitePath string) (*graph.Site, error)
	ListDrives(ctx context.Context, siteID string) ([]graph.Drive, error)
	ListRootChildren(ctx context.Context, driveID string) ([]graph.DriveItem, error)
	ListChildren(ctx context.Context, driveID, folderPath string) ([]graph.DriveItem, error)
	PutContent(ctx context.Context, driveID, itemPath string, body io.Reader, size int64, contentType string) (*graph.DriveItem, error)
	UploadLarge(ctx context.Context, driveID, itemPath string, body io.Reader, size int64) (*graph.DriveItem, error)
}

// SharePointConfig locates the document library.
type SharePointConfig struct {
	Hostname        string
	SitePath        string
	DocumentLibrary string
}

// SharePointStore keeps client folders in a SharePoint document library.
// Site and drive are resolved on every call.
type SharePointStore struct {
	api    graphAPI
	config SharePointConfig
	logger logger.Logger
}

func NewSharePointStore(api graphAPI, cfg SharePointConfig, log logger.Logger) *SharePointStore {
	return &SharePointStore{
		api:    api,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "sharepoint", "library": cfg.DocumentLibrary}),
	}
}

func (s *SharePointStore) siteID(ctx context.Context) (string, error) {
	site, err := s.api.GetSiteByPath(ctx, s.config.Hostname, s.config.SitePath)
	if err != nil {
		return "", fmt.Errorf("resolve site %s%s: %w", s.config.Hostname, s.config.SitePath, err)
	}
	return site.ID, nil
}

func (s *SharePointStore) driveID(ctx context.Context) (string, error) {
	siteID, err := s.siteID(ctx)
	if err != nil {
		return "", err
	}
	drives, err := s.api.ListDrives(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("list drives: %w", err)
	}
	for _, d := range drives {
		if d.Name == s.config.DocumentLibrary {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("document library %q not found", s.config.DocumentLibrary)
}

func (s *SharePointStore) FindFolders(ctx context.Context, query string) ([]models.DriveItem, error) {
	driveID, err := s.driveID(ctx)
	if err != nil {
		s.logger.Warn("folder search skipped", map[string]interface{}{"query": query, "error": err.Error()})
		return []models.DriveItem{}, nil
	}

	children, err := s.api.ListRootChildren(ctx, driveID)
	if err != nil {
		s.logger.Warn("folder search failed", map[string]interface{}{"query": query, "error": err.Error()})
		return []models.DriveItem{}, nil
	}
	return models.MatchFolders(toItems(children), query), nil
}

func (s *SharePointStore) Upload(ctx context.Context, content io.Reader, size int64, fileName, folder string) (string, error) {
	driveID, err := s.driveID(ctx)
	if err != nil {
		return "", apperrors.NewUploadFailedError(fileName, err)
	}

	itemPath := folder + "/" + fileName
	var item *graph.DriveItem
	if size <= graph.SimpleUploadLimit {
		item, err = s.api.PutContent(ctx, driveID, itemPath, content, size, contentType(fileName))
	} else {
		item, err = s.api.UploadLarge(ctx, driveID, itemPath, content, size)
	}
	if err != nil {
		return "", apperrors.NewUploadFailedError(fileName, err)
	}

	s.logger.Debug("file uploaded", map[string]interface{}{"folder": folder, "file": fileName, "size": size})
	return item.WebURL, nil
}

func (s *SharePointStore) ListChildren(ctx context.Context, folder string) ([]models.DriveItem, error) {
	driveID, err := s.driveID(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list children", err)
	}
	children, err := s.api.ListChildren(ctx, driveID, folder)
	if graph.IsNotFound(err) {
		return []models.DriveItem{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list children", err)
	}
	return toItems(children), nil
}

func (s *SharePointStore) ListDrives(ctx context.Context) ([]models.Drive, error) {
	siteID, err := s.siteID(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list drives", err)
	}
	drives, err := s.api.ListDrives(ctx, siteID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list drives", err)
	}

	out := make([]models.Drive, 0, len(drives))
	for _, d := range drives {
		out = append(out, models.Drive{ID: d.ID, Name: d.Name, WebURL: d.WebURL, DriveType: d.DriveType})
	}
	return out, nil
}

func toItems(children []graph.DriveItem) []models.DriveItem {
	out := make([]models.DriveItem, 0, len(children))
	for _, c := range children {
		out = append(out, models.DriveItem{
			Name:        c.Name,
			CreatedDate: c.CreatedDateTime,
			WebURL:      c.WebURL,
			IsFolder:    c.IsFolder(),
		})
	}
	return out
}

func contentType(fileName string) string {
	if ct := mime.TypeByExtension(path.Ext(fileName)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
