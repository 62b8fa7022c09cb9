package models

import (
	"strings"
	"time"
)

// Applicant types carried in the applicantType form field.
const (
	ApplicantIndividual = "individual"
	ApplicantBusiness   = "business"
)

// UnknownClient is used when a submission carries no usable name.
const UnknownClient = "Unknown Client"

// DefaultApplicationType labels the approval email when the form omits one.
const DefaultApplicationType = "Business"

// Generated document names inside a client folder.
const (
	ClientInformationFile    = "Client_Information.pdf"
	ResubmissionTrackingFile = "Resubmission_Tracking.pdf"
	LegalApprovalFile        = "Legal_Approval.pdf"
)

// nameFields are consulted in order to identify the client.
var nameFields = []string{"fullName", "repFullName", "companyRegName"}

// UploadedFile is an attachment spooled to a request-scoped temp file.
type UploadedFile struct {
	Name        string
	Path        string
	Size        int64
	ContentType string
}

// FormSubmission is one onboarding form as received.
type FormSubmission struct {
	ApplicantType string
	Fields        map[string]string
	Files         []UploadedFile
	SignatureData string
}

// Field returns the trimmed value of key, or "".
func (s *FormSubmission) Field(key string) string {
	if s == nil || s.Fields == nil {
		return ""
	}
	return strings.TrimSpace(s.Fields[key])
}

// FirstField returns the first non-empty value among keys.
func (s *FormSubmission) FirstField(keys ...string) string {
	for _, k := range keys {
		if v := s.Field(k); v != "" {
			return v
		}
	}
	return ""
}

// ClientName resolves the candidate client identity. It never fails.
func (s *FormSubmission) ClientName() string {
	if name := s.FirstField(nameFields...); name != "" {
		return name
	}
	return UnknownClient
}

// IsIndividual reports whether the form describes a natural person.
// Anything else, including a missing discriminator, is treated as a business.
func (s *FormSubmission) IsIndividual() bool {
	return strings.EqualFold(strings.TrimSpace(s.ApplicantType), ApplicantIndividual)
}

// ApplicationType is the label used in the approval email subject.
func (s *FormSubmission) ApplicationType() string {
	if v := s.Field("applicationType"); v != "" {
		return v
	}
	return DefaultApplicationType
}

// AllowDuplicate reports whether the caller authorized a resubmission.
func (s *FormSubmission) AllowDuplicate() bool {
	return s.Field("allowDuplicate") == "true"
}

var folderNameReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", "?", "-", "%", "-", "*", "-",
	":", "-", "|", "-", `"`, "-", "<", "-", ">", "-",
)

// SanitizeFolderName replaces characters that are illegal in drive item names.
func SanitizeFolderName(name string) string {
	return folderNameReplacer.Replace(name)
}

// NewClientFolderName names the folder of a first-time client.
func NewClientFolderName(clientName string, now time.Time) string {
	return SanitizeFolderName(clientName) + "_" + now.UTC().Format("2006-01-02")
}

// LockKey is the key serializing submissions for the same candidate name.
func LockKey(clientName string) string {
	return "onboarding:client:" + strings.ToLower(SanitizeFolderName(strings.TrimSpace(clientName)))
}
