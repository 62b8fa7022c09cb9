// internal/workers/onboarding/approve-application/page.go
package approveapplication

import (
	"bytes"
	"html/template"
)

var approvedPage = template.Must(template.New("approved").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Application Approved - IBV Gold</title>
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: linear-gradient(135deg, #2c5f7e 0%, #1e4a63 100%); }
.success-box { background: white; padding: 50px; border-radius: 15px; text-align: center; box-shadow: 0 10px 40px rgba(0,0,0,0.3); max-width: 500px; }
.checkmark { font-size: 100px; color: #28a745; }
h1 { color: #333; margin: 20px 0; }
p { color: #666; font-size: 16px; line-height: 1.6; }
.client-folder { background: #f8f9fa; padding: 15px; border-radius: 8px; margin: 20px 0; font-family: monospace; color: #2c5f7e; }
a { display: inline-block; margin-top: 20px; padding: 15px 35px; background: #2c5f7e; color: white; text-decoration: none; border-radius: 8px; font-weight: bold; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #dee2e6; color: #999; font-size: 14px; }
</style>
</head>
<body>
<div class="success-box">
  <div class="checkmark">&#10003;</div>
  <h1>Application Approved!</h1>
  <p>The application has been successfully approved and the Legal Approval document has been generated.</p>
  <div class="client-folder">{{.ClientFolder}}</div>
  <p style="font-size: 14px;">The approval document has been saved to the client's folder in SharePoint.</p>
  <p style="font-size: 14px;">Reference: {{.Reference}}</p>
  <a href="{{.CertificateURL}}" target="_blank">View Approval Document</a>
  <div class="footer">
    <p>IBV Gold Pre-Trade Application System</p>
    <p>AI Nex Gen | IBV International Vaults</p>
  </div>
</div>
</body>
</html>
`))

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; background: #f4f4f4; }
.error-box { background: white; padding: 40px; border-radius: 10px; box-shadow: 0 5px 15px rgba(0,0,0,0.1); text-align: center; }
.error-icon { font-size: 60px; color: #dc3545; }
h1 { color: #333; }
p { color: #666; }
</style>
</head>
<body>
<div class="error-box">
  <div class="error-icon">&#10007;</div>
  <h1>{{.Title}}</h1>
  <p>{{.Summary}}</p>
  {{if .Detail}}<p style="font-size: 14px; color: #999;">{{.Detail}}</p>{{end}}
</div>
</body>
</html>
`))

type errorView struct {
	Title   string
	Summary string
	Detail  string
}

func renderApproved(out *Output) string {
	var buf bytes.Buffer
	if err := approvedPage.Execute(&buf, out); err != nil {
		return out.ClientFolder
	}
	return buf.String()
}

func renderError(title, summary, detail string) string {
	var buf bytes.Buffer
	if err := errorPage.Execute(&buf, errorView{Title: title, Summary: summary, Detail: detail}); err != nil {
		return summary
	}
	return buf.String()
}
