package render

import (
	"fmt"

	"client-onboarding/internal/models"
)

// Tracking entry notes.
const (
	NoteOriginalSubmission = "Original submission"
	NoteResubmission       = "Resubmission - Information updated"
)

// TrackingEntry is one line of the submission history.
type TrackingEntry struct {
	Date string
	Note string
}

// BuildResubmissionTracking lays out the submission history document.
func BuildResubmissionTracking(clientName string, entries []TrackingEntry) *Document {
	doc := &Document{Name: models.ResubmissionTrackingFile}
	doc.title("APPLICATION RESUBMISSION TRACKING", 14)
	doc.spacer(10)
	doc.labeled("Client Name", clientName, 10)
	doc.spacer(10)
	doc.heading("SUBMISSION HISTORY", 11)

	for i, e := range entries {
		doc.labeled(fmt.Sprintf("%d.", i+1), e.Date+" - "+e.Note, 8)
	}

	doc.spacer(20)
	doc.note("This document tracks all submission and resubmission dates for compliance purposes.", 7)
	return doc
}
