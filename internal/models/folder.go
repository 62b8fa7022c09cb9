package models

import (
	"strings"
	"time"
)

// DriveItem is a file or folder in the client document library.
type DriveItem struct {
	Name        string `json:"name"`
	CreatedDate string `json:"createdDate"`
	WebURL      string `json:"webUrl"`
	IsFolder    bool   `json:"-"`
}

// Drive is a document library of the configured site.
type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WebURL    string `json:"webUrl"`
	DriveType string `json:"driveType,omitempty"`
}

// MatchFolders keeps folders whose name contains query, ignoring case.
// Files never match.
func MatchFolders(items []DriveItem, query string) []DriveItem {
	q := strings.ToLower(query)
	matches := make([]DriveItem, 0)
	for _, item := range items {
		if item.IsFolder && strings.Contains(strings.ToLower(item.Name), q) {
			matches = append(matches, item)
		}
	}
	return matches
}

// Outcome is the result of duplicate resolution.
type Outcome string

const (
	OutcomeNew          Outcome = "new"
	OutcomeRejected     Outcome = "rejected"
	OutcomeResubmission Outcome = "resubmission"
)

// FolderDecision says where a submission goes.
type FolderDecision struct {
	Outcome Outcome
	Folder  string
	Matches []DriveItem
}

// ResolveFolder applies the duplicate rules: no match creates a dated folder,
// a match is rejected unless resubmission is allowed, in which case the first
// match in store order is reused.
func ResolveFolder(clientName string, matches []DriveItem, allowDuplicate bool, now time.Time) FolderDecision {
	switch {
	case len(matches) == 0:
		return FolderDecision{Outcome: OutcomeNew, Folder: NewClientFolderName(clientName, now)}
	case !allowDuplicate:
		return FolderDecision{Outcome: OutcomeRejected, Matches: matches}
	default:
		return FolderDecision{Outcome: OutcomeResubmission, Folder: matches[0].Name, Matches: matches}
	}
}

// FolderLink derives the folder URL from an uploaded item URL by dropping the
// last path segment.
func FolderLink(itemURL string) string {
	if i := strings.LastIndex(itemURL, "/"); i > 0 {
		return itemURL[:i]
	}
	return itemURL
}

// FallbackFolderLink is used when no upload produced a URL.
func FallbackFolderLink(siteURL, siteName, library, folder string) string {
	return siteURL + "/sites/" + siteName + "/" + library + "/" + folder
}
