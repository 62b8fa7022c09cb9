package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

// ApprovalEmail is the content of the approval request sent to the legal team.
type ApprovalEmail struct {
	ClientName      string
	ApplicationType string
	Folder          string
	FolderLink      string
	BaseURL         string
	SubmittedAt     time.Time
	Location        *time.Location
}

type approvalView struct {
	ClientName      string
	ApplicationType string
	ApplicationKind string
	SubmissionDate  string
	Folder          string
	FolderLink      template.URL
	ApprovalURL     template.URL
}

var approvalTemplate = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background: #f4f4f4; }
.container { max-width: 600px; margin: 20px auto; background: white; border-radius: 10px; overflow: hidden; }
.header { background: #2c5f7e; color: white; padding: 40px 30px; text-align: center; }
.content { padding: 30px; }
.info-box { background: #f8f9fa; padding: 20px; margin: 20px 0; border-radius: 8px; border-left: 4px solid #2c5f7e; }
.button-container { text-align: center; margin: 30px 0; }
.button { display: inline-block; padding: 16px 40px; margin: 10px; background: #28a745; color: white !important; text-decoration: none; border-radius: 8px; font-weight: bold; }
.button-secondary { background: #2c5f7e; }
.note { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
.footer { text-align: center; padding: 20px; background: #f8f9fa; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>New Application Requires Approval</h1></div>
  <div class="content">
    <h2>Application Details</h2>
    <div class="info-box">
      <p><strong>Client Name:</strong> {{.ClientName}}</p>
      <p><strong>Application Type:</strong> {{.ApplicationType}}</p>
      <p><strong>Submission Date:</strong> {{.SubmissionDate}}</p>
      <p><strong>Folder Name:</strong> {{.Folder}}</p>
    </div>
    <p>A new {{.ApplicationKind}} application has been submitted and requires your review and approval.</p>
    <div class="button-container">
      <a href="{{.FolderLink}}" class="button button-secondary">View Documents in SharePoint</a>
      <br>
      <a href="{{.ApprovalURL}}" class="button">APPROVE APPLICATION</a>
    </div>
    <div class="note">
      <p><strong>Important:</strong> Please review all documents in SharePoint before approving. Once approved, a Legal Approval PDF will be automatically generated and saved to the client's folder.</p>
    </div>
  </div>
  <div class="footer">
    <p><strong>IBV Gold Pre-Trade Application System</strong></p>
    <p>This is an automated message. Please do not reply to this email.</p>
  </div>
</div>
</body>
</html>
`))

// ApprovalURL is the one-click approval link for folder.
func ApprovalURL(baseURL, folder string) string {
	return strings.TrimRight(baseURL, "/") + "/api/approve?client=" + url.QueryEscape(folder)
}

func (e ApprovalEmail) Subject() string {
	return fmt.Sprintf("New %s Application for Approval - %s", e.ApplicationType, e.ClientName)
}

// Render returns the subject and HTML body.
func (e ApprovalEmail) Render() (string, string, error) {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	view := approvalView{
		ClientName:      e.ClientName,
		ApplicationType: e.ApplicationType,
		ApplicationKind: strings.ToLower(e.ApplicationType),
		SubmissionDate:  e.SubmittedAt.In(loc).Format("Monday, 02 January 2006 at 15:04"),
		Folder:          e.Folder,
		FolderLink:      template.URL(e.FolderLink),
		ApprovalURL:     template.URL(ApprovalURL(e.BaseURL, e.Folder)),
	}

	var buf bytes.Buffer
	if err := approvalTemplate.Execute(&buf, view); err != nil {
		return "", "", fmt.Errorf("render approval email: %w", err)
	}
	return e.Subject(), buf.String(), nil
}
