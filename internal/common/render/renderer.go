package render

import (
	"time"
	_ "time/tzdata"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/models"
)

// DefaultLocation is the business timezone used for displayed dates.
const DefaultLocation = "Africa/Johannesburg"

// Renderer produces onboarding PDFs. It is safe for concurrent use.
type Renderer struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Renderer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLocation overrides the display timezone.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) { r.loc = loc }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.loc == nil {
		loc, err := time.LoadLocation(DefaultLocation)
		if err != nil {
			loc = time.FixedZone("SAST", 2*60*60)
		}
		r.loc = loc
	}
	return r
}

// Now returns the renderer clock's current time.
func (r *Renderer) Now() time.Time {
	return r.now()
}

// Location returns the display timezone.
func (r *Renderer) Location() *time.Location {
	return r.loc
}

// TrackingDate formats a history date, optionally with time of day.
func (r *Renderer) TrackingDate(t time.Time, withTime bool) string {
	if withTime {
		return t.In(r.loc).Format("2006/01/02 15:04:05")
	}
	return t.In(r.loc).Format("2006/01/02")
}

func (r *Renderer) ClientInformation(sub *models.FormSubmission, folder string) ([]byte, error) {
	now := r.now()
	doc := BuildClientInformation(sub, folder, now.In(r.loc).Format("02 Jan 2006"))
	return r.paint(doc, now)
}

func (r *Renderer) ResubmissionTracking(clientName string, entries []TrackingEntry) ([]byte, error) {
	return r.paint(BuildResubmissionTracking(clientName, entries), r.now())
}

func (r *Renderer) ApprovalCertificate(folder string) (Certificate, []byte, error) {
	cert := NewCertificate(folder, r.now())
	data, err := r.paint(BuildApprovalCertificate(cert, r.loc), cert.ApprovedAt)
	if err != nil {
		return Certificate{}, nil, err
	}
	return cert, data, nil
}

func (r *Renderer) paint(doc *Document, at time.Time) ([]byte, error) {
	data, err := Paint(doc, at)
	if err != nil {
		return nil, apperrors.NewRenderFailedError(doc.Name, err)
	}
	return data, nil
}
