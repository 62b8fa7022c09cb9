// Package graph is a minimal Microsoft Graph REST client covering SharePoint
// document libraries and outbound mail.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	commonhttp "client-onboarding/internal/common/http"
)

const (
	// SimpleUploadLimit is the largest payload accepted by a single PUT.
	SimpleUploadLimit = 4 << 20
	// chunkUnit is the alignment required for upload session fragments.
	chunkUnit = 320 << 10
)

type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

type Drive struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
	WebURL    string `json:"webUrl"`
}

type DriveItem struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	WebURL          string       `json:"webUrl"`
	CreatedDateTime string       `json:"createdDateTime"`
	Size            int64        `json:"size"`
	Folder          *FolderFacet `json:"folder,omitempty"`
	File            *FileFacet   `json:"file,omitempty"`
}

type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

type FileFacet struct {
	MimeType string `json:"mimeType"`
}

func (i DriveItem) IsFolder() bool {
	return i.Folder != nil
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// APIError is a decoded Graph error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a Graph 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to one Graph endpoint with an already authenticated *http.Client.
type Client struct {
	baseURL   string
	api       *commonhttp.Client
	upload    *commonhttp.Client
	chunkSize int64
}

// NewClient builds a Graph client. authed must attach bearer tokens; upload
// session fragments are sent with a plain client since their URLs are pre-authorized.
func NewClient(baseURL string, authed *http.Client, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		api:       commonhttp.Wrap(authed),
		upload:    commonhttp.NewClient(timeout),
		chunkSize: 10 * chunkUnit,
	}
}

// GetSiteByPath resolves a site from its hostname and server-relative path.
func (c *Client) GetSiteByPath(ctx context.Context, hostname, sitePath string) (*Site, error) {
	var site Site
	u := fmt.Sprintf("%s/sites/%s:/%s", c.baseURL, hostname, escapePath(sitePath))
	if err := c.do(ctx, http.MethodGet, u, nil, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// ListDrives lists the document libraries of a site.
func (c *Client) ListDrives(ctx context.Context, siteID string) ([]Drive, error) {
	return collect[Drive](ctx, c, fmt.Sprintf("%s/sites/%s/drives", c.baseURL, url.PathEscape(siteID)))
}

// ListRootChildren lists the top-level items of a drive.
func (c *Client) ListRootChildren(ctx context.Context, driveID string) ([]DriveItem, error) {
	return collect[DriveItem](ctx, c, fmt.Sprintf("%s/drives/%s/root/children", c.baseURL, url.PathEscape(driveID)))
}

// ListChildren lists the items below a drive-relative folder path.
func (c *Client) ListChildren(ctx context.Context, driveID, folderPath string) ([]DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/root:/%s:/children", c.baseURL, url.PathEscape(driveID), escapePath(folderPath))
	return collect[DriveItem](ctx, c, u)
}

// PutContent creates or replaces a file of at most SimpleUploadLimit bytes.
func (c *Client) PutContent(ctx context.Context, driveID, itemPath string, body io.Reader, size int64, contentType string) (*DriveItem, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	u := fmt.Sprintf("%s/drives/%s/root:/%s:/content", c.baseURL, url.PathEscape(driveID), escapePath(itemPath))

	var item DriveItem
	err := c.api.DoRaw(ctx, http.MethodPut, u, body, size, map[string]string{"Content-Type": contentType}, &item)
	if err != nil {
		return nil, decodeError(err)
	}
	return &item, nil
}

type uploadSession struct {
	UploadURL          string   `json:"uploadUrl"`
	ExpirationDateTime string   `json:"expirationDateTime"`
	NextExpectedRanges []string `json:"nextExpectedRanges"`
}

// UploadLarge streams a file through an upload session in aligned fragments,
// replacing any existing item at itemPath.
func (c *Client) UploadLarge(ctx context.Context, driveID, itemPath string, body io.Reader, size int64) (*DriveItem, error) {
	u := fmt.Sprintf("%s/drives/%s/root:/%s:/createUploadSession", c.baseURL, url.PathEscape(driveID), escapePath(itemPath))
	req := map[string]interface{}{
		"item": map[string]string{"@microsoft.graph.conflictBehavior": "replace"},
	}

	var session uploadSession
	if err := c.do(ctx, http.MethodPost, u, req, &session); err != nil {
		return nil, err
	}
	if session.UploadURL == "" {
		return nil, fmt.Errorf("upload session for %s returned no upload url", itemPath)
	}

	buf := make([]byte, c.chunkSize)
	var offset int64
	for offset < size {
		n, err := io.ReadFull(body, buf[:min(c.chunkSize, size-offset)])
		if err != nil {
			c.cancelSession(session.UploadURL)
			return nil, fmt.Errorf("read fragment at %d: %w", offset, err)
		}

		end := offset + int64(n) - 1
		headers := map[string]string{
			"Content-Range": fmt.Sprintf("bytes %d-%d/%d", offset, end, size),
		}

		var item DriveItem
		if err := c.upload.DoRaw(ctx, http.MethodPut, session.UploadURL, bytes.NewReader(buf[:n]), int64(n), headers, &item); err != nil {
			c.cancelSession(session.UploadURL)
			return nil, decodeError(err)
		}
		offset = end + 1
		if offset >= size {
			return &item, nil
		}
	}
	return nil, fmt.Errorf("upload session for %s ended without a completed item", itemPath)
}

func (c *Client) cancelSession(uploadURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = c.upload.DoRaw(ctx, http.MethodDelete, uploadURL, nil, -1, nil, nil)
}

// Recipient is a Graph mail recipient.
type Recipient struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// NewRecipient builds a recipient for address.
func NewRecipient(address string) Recipient {
	var r Recipient
	r.EmailAddress.Address = address
	return r
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type Message struct {
	Subject      string      `json:"subject"`
	Body         ItemBody    `json:"body"`
	ToRecipients []Recipient `json:"toRecipients"`
}

// SendMail sends message from the mailbox of from and saves it to Sent Items.
func (c *Client) SendMail(ctx context.Context, from string, message Message) error {
	u := fmt.Sprintf("%s/users/%s/sendMail", c.baseURL, url.PathEscape(from))
	payload := map[string]interface{}{
		"message":         message,
		"saveToSentItems": true,
	}
	return c.do(ctx, http.MethodPost, u, payload, nil)
}

func (c *Client) do(ctx context.Context, method, u string, body, out interface{}) error {
	if err := c.api.DoJSON(ctx, method, u, body, out); err != nil {
		return decodeError(err)
	}
	return nil
}

func collect[T any](ctx context.Context, c *Client, u string) ([]T, error) {
	var out []T
	for u != "" {
		var p page[T]
		if err := c.do(ctx, http.MethodGet, u, nil, &p); err != nil {
			return nil, err
		}
		out = append(out, p.Value...)
		u = p.NextLink
	}
	return out, nil
}

func decodeError(err error) error {
	var statusErr *commonhttp.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: statusErr.StatusCode, Message: strings.TrimSpace(string(statusErr.Body))}
	if json.Unmarshal(statusErr.Body, &body) == nil && body.Error.Message != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}

// escapePath escapes each segment of a drive-relative path. Colons are
// escaped too since Graph uses them to delimit path addressing.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
	}
	return strings.Join(segments, "/")
}
