package render

import (
	"strconv"
	"time"

	"client-onboarding/internal/models"
)

const (
	ApprovedBy     = "Legal Team - IBV Global"
	ApprovalStatus = "APPROVED FOR TRADING"
)

const certificationText = "This document certifies that the above-mentioned application has been thoroughly " +
	"reviewed and approved by the IBV Gold legal team for pre-trade activities. All compliance requirements " +
	"have been satisfied."

// Certificate identifies one issued approval.
type Certificate struct {
	Folder     string
	Reference  string
	ApprovedAt time.Time
}

// NewCertificate stamps an approval at now. The reference is the Unix
// millisecond time of approval.
func NewCertificate(folder string, now time.Time) Certificate {
	return Certificate{
		Folder:     folder,
		Reference:  strconv.FormatInt(now.UnixMilli(), 10),
		ApprovedAt: now,
	}
}

// BuildApprovalCertificate lays out the legal approval document.
func BuildApprovalCertificate(cert Certificate, loc *time.Location) *Document {
	if loc == nil {
		loc = time.UTC
	}
	doc := &Document{Name: models.LegalApprovalFile}
	doc.title("LEGAL APPROVAL", 18)
	doc.subtitle("APPLICATION APPROVED FOR TRADING")
	doc.spacer(20)
	doc.add(Block{Kind: BlockBadge, Size: 70})
	doc.title("APPROVED", 16)
	doc.spacer(20)
	doc.heading("APPROVAL DETAILS", 12)
	doc.add(Block{Kind: BlockFields, Fields: []Field{
		{Label: "CLIENT FOLDER", Value: cert.Folder},
		{Label: "APPROVAL DATE", Value: cert.ApprovedAt.In(loc).Format("Monday, 02 January 2006 at 15:04")},
		{Label: "APPROVED BY", Value: ApprovedBy},
		{Label: "STATUS", Value: ApprovalStatus},
		{Label: "REFERENCE", Value: cert.Reference},
	}})
	doc.spacer(10)
	doc.heading("CERTIFICATION", 12)
	doc.note(certificationText, 9)
	return doc
}
