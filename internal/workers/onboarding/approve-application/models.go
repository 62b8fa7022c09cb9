// internal/workers/onboarding/approve-application/models.go
package approveapplication

// Input is the job payload of the approval task.
type Input struct {
	ClientFolder string `json:"clientFolder"`
}

type Output struct {
	ClientFolder   string `json:"clientFolder"`
	CertificateURL string `json:"certificateUrl"`
	Reference      string `json:"approvalReference"`
	ApprovedAt     string `json:"approvedAt"`
}

const (
	MsgInvalidLink = "Invalid approval link"

	queryClient = "client"

	sourceHTTP  = "http"
	sourceZeebe = "zeebe"
)
