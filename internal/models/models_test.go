package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientName(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"individual", map[string]string{"fullName": "Jane Doe", "repFullName": "Rep"}, "Jane Doe"},
		{"business representative", map[string]string{"repFullName": "John Rep"}, "John Rep"},
		{"company registration", map[string]string{"companyRegName": "Acme (Pty) Ltd"}, "Acme (Pty) Ltd"},
		{"blank values skipped", map[string]string{"fullName": "  ", "repFullName": "John"}, "John"},
		{"nothing usable", map[string]string{"email": "x@y.z"}, UnknownClient},
		{"nil fields", nil, UnknownClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &FormSubmission{Fields: tt.fields}
			assert.Equal(t, tt.want, s.ClientName())
		})
	}
}

func TestFormSubmission_Flags(t *testing.T) {
	s := &FormSubmission{ApplicantType: "Individual", Fields: map[string]string{"allowDuplicate": "true"}}
	assert.True(t, s.IsIndividual())
	assert.True(t, s.AllowDuplicate())
	assert.Equal(t, DefaultApplicationType, s.ApplicationType())

	s = &FormSubmission{Fields: map[string]string{"allowDuplicate": "TRUE", "applicationType": "Individual"}}
	assert.False(t, s.IsIndividual())
	assert.False(t, s.AllowDuplicate())
	assert.Equal(t, "Individual", s.ApplicationType())
}

func TestSanitizeFolderName(t *testing.T) {
	assert.Equal(t, "A-B-C-D-E-F-G-H-I-J-K", SanitizeFolderName(`A/B\C?D%E*F:G|H"I<J>K`))
	assert.Equal(t, "Smith & Sons (Pty) Ltd", SanitizeFolderName("Smith & Sons (Pty) Ltd"))

	for _, in := range []string{`a/b`, `x:y|z`, "plain", `"q"`} {
		once := SanitizeFolderName(in)
		assert.Equal(t, once, SanitizeFolderName(once), "idempotent for %q", in)
	}
}

func TestNewClientFolderName_UsesUTCDate(t *testing.T) {
	sast := time.FixedZone("SAST", 2*60*60)
	now := time.Date(2025, 3, 5, 1, 30, 0, 0, sast) // 2025-03-04 23:30 UTC
	assert.Equal(t, "Jane-Doe_2025-03-04", NewClientFolderName("Jane/Doe", now))
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, LockKey("Acme:Gold"), LockKey("  acme:gold "))
	assert.Equal(t, "onboarding:client:acme-gold", LockKey("Acme:Gold"))
}

func TestMatchFolders(t *testing.T) {
	items := []DriveItem{
		{Name: "ACME_2025-01-01", IsFolder: true},
		{Name: "acme notes.pdf", IsFolder: false},
		{Name: "Beta_2025-01-02", IsFolder: true},
		{Name: "Old Acme Holdings_2024-12-31", IsFolder: true},
	}
	got := MatchFolders(items, "Acme")
	assert.Equal(t, []string{"ACME_2025-01-01", "Old Acme Holdings_2024-12-31"}, names(got))
	assert.Empty(t, MatchFolders(items, "gamma"))
	assert.NotNil(t, MatchFolders(nil, "x"))
}

func TestResolveFolder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	matches := []DriveItem{{Name: "Acme_2025-01-01", IsFolder: true}, {Name: "Acme_2025-02-01", IsFolder: true}}

	d := ResolveFolder("Acme", nil, false, now)
	assert.Equal(t, OutcomeNew, d.Outcome)
	assert.Equal(t, "Acme_2025-06-01", d.Folder)

	d = ResolveFolder("Acme", nil, true, now)
	assert.Equal(t, OutcomeNew, d.Outcome)

	d = ResolveFolder("Acme", matches, false, now)
	assert.Equal(t, OutcomeRejected, d.Outcome)
	assert.Empty(t, d.Folder)
	assert.Len(t, d.Matches, 2)

	d = ResolveFolder("Acme", matches, true, now)
	assert.Equal(t, OutcomeResubmission, d.Outcome)
	assert.Equal(t, "Acme_2025-01-01", d.Folder)
}

func TestFolderLink(t *testing.T) {
	assert.Equal(t,
		"https://ibvza.sharepoint.com/sites/AINexGen/Gold/Acme_2025-01-01",
		FolderLink("https://ibvza.sharepoint.com/sites/AINexGen/Gold/Acme_2025-01-01/id.pdf"))
	assert.Equal(t,
		"https://ibvza.sharepoint.com/sites/AINexGen/sites/AINexGen/Gold Pre-Trade Clients/Acme_2025-01-01",
		FallbackFolderLink("https://ibvza.sharepoint.com/sites/AINexGen", "AINexGen", "Gold Pre-Trade Clients", "Acme_2025-01-01"))
}

func names(items []DriveItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
