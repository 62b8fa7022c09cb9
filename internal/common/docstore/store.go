// Package docstore persists client documents in a cloud document library.
package docstore

import (
	"context"
	"io"

	"client-onboarding/internal/models"
)

// Store is the document store gateway used by the onboarding workflows.
type Store interface {
	// FindFolders returns top-level folders whose name contains query,
	// ignoring case. An unreachable store yields an empty result.
	FindFolders(ctx context.Context, query string) ([]models.DriveItem, error)
	// Upload creates or overwrites folder/fileName and returns its web URL.
	Upload(ctx context.Context, content io.Reader, size int64, fileName, folder string) (string, error)
	// ListChildren lists the items of a client folder.
	ListChildren(ctx context.Context, folder string) ([]models.DriveItem, error)
	// ListDrives lists the document libraries of the configured site.
	ListDrives(ctx context.Context) ([]models.Drive, error)
}
