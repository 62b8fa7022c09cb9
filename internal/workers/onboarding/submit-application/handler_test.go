// internal/workers/onboarding/submit-application/handler_test.go
package submitapplication

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "client-onboarding/internal/common/errors"
	"client-onboarding/internal/common/logger"
	"client-onboarding/internal/common/notify"
	"client-onboarding/internal/common/render"
	"client-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type upload struct {
	Folder string
	File   string
	Data   []byte
}

type MockStore struct {
	mu               sync.Mutex
	FindFoldersFunc  func(ctx context.Context, query string) ([]models.DriveItem, error)
	UploadFunc       func(ctx context.Context, fileName, folder string) (string, error)
	ListChildrenFunc func(ctx context.Context, folder string) ([]models.DriveItem, error)
	uploads          []upload
	findCalls        int
}

func (m *MockStore) FindFolders(ctx context.Context, query string) ([]models.DriveItem, error) {
	m.mu.Lock()
	m.findCalls++
	m.mu.Unlock()
	if m.FindFoldersFunc == nil {
		return []models.DriveItem{}, nil
	}
	return m.FindFoldersFunc(ctx, query)
}

func (m *MockStore) Upload(ctx context.Context, content io.Reader, size int64, fileName, folder string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch for %s: %d != %d", fileName, len(data), size)
	}
	if m.UploadFunc != nil {
		if url, err := m.UploadFunc(ctx, fileName, folder); err != nil || url != "" {
			return url, err
		}
	}
	m.mu.Lock()
	m.uploads = append(m.uploads, upload{Folder: folder, File: fileName, Data: data})
	m.mu.Unlock()
	return "https://ibvza.sharepoint.com/sites/AINexGen/Gold/" + folder + "/" + fileName, nil
}

func (m *MockStore) ListChildren(ctx context.Context, folder string) ([]models.DriveItem, error) {
	if m.ListChildrenFunc == nil {
		return []models.DriveItem{}, nil
	}
	return m.ListChildrenFunc(ctx, folder)
}

func (m *MockStore) ListDrives(ctx context.Context) ([]models.Drive, error) {
	return nil, errors.New("not implemented")
}

func (m *MockStore) uploadedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, u := range m.uploads {
		out = append(out, u.File)
	}
	return out
}

type sentEmail struct {
	Subject string
	Body    string
}

type MockNotifier struct {
	mu   sync.Mutex
	Err  error
	sent []sentEmail
}

func (m *MockNotifier) Notify(ctx context.Context, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, sentEmail{Subject: subject, Body: htmlBody})
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, 3, 4, 12, 5, 0, 0, time.UTC)

type testEnv struct {
	handler  *Handler
	store    *MockStore
	notifier *MockNotifier
	tempDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := LoadConfig()
	cfg.TempDir = t.TempDir()
	store := &MockStore{}
	notifier := &MockNotifier{}
	h := NewHandler(cfg, Dependencies{
		Store:    store,
		Renderer: render.New(render.WithClock(func() time.Time { return fixedNow })),
		Notifier: notifier,
	}, logger.NewTestLogger(t))
	return &testEnv{handler: h, store: store, notifier: notifier, tempDir: cfg.TempDir}
}

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, fields [][2]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f[0], f[1]))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files left behind")
}

// ==========================
// Tests
// ==========================

func TestSubmit_NewClient(t *testing.T) {
	env := newTestEnv(t)
	env.store.UploadFunc = func(ctx context.Context, fileName, folder string) (string, error) {
		if fileName == "proof.pdf" {
			return "", apperrors.NewUploadFailedError(fileName, errors.New("quota exceeded"))
		}
		return "", nil
	}

	req := multipartRequest(t,
		[][2]string{{"applicantType", "individual"}, {"fullName", "Jane Doe"}, {"email", "jane@example.com"}},
		[]formFile{{"files", "id.png", "png"}, {"files", "proof.pdf", "pdf"}, {"files[]", "bank.pdf", "bank"}},
	)
	rec := env.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, MsgSubmitted, out.Message)
	assert.Equal(t, "Jane Doe_2025-03-04", out.ClientFolder)
	assert.Equal(t, "https://ibvza.sharepoint.com/sites/AINexGen/Gold/Jane Doe_2025-03-04", out.SharePointLink)

	require.Len(t, out.UploadedFiles, 3)
	assert.NotEmpty(t, out.UploadedFiles[0].URL)
	assert.Empty(t, out.UploadedFiles[1].URL)
	assert.Contains(t, out.UploadedFiles[1].Error, "quota exceeded")
	assert.NotEmpty(t, out.UploadedFiles[2].URL)

	assert.ElementsMatch(t, []string{"id.png", "bank.pdf", models.ClientInformationFile}, env.store.uploadedNames())
	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, "New Business Application for Approval - Jane Doe", env.notifier.sent[0].Subject)
	body := html.UnescapeString(env.notifier.sent[0].Body)
	assert.Contains(t, body, `href="http://localhost:3000/api/approve?client=Jane+Doe_2025-03-04"`)
	assertNoTempFiles(t, env.tempDir)
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	env.store.FindFoldersFunc = func(ctx context.Context, query string) ([]models.DriveItem, error) {
		return []models.DriveItem{{Name: "Acme_2025-01-01", CreatedDate: "2025-01-01T08:00:00Z", WebURL: "https://x/Acme_2025-01-01", IsFolder: true}}, nil
	}

	req := multipartRequest(t,
		[][2]string{{"applicantType", "business"}, {"repFullName", "Acme"}},
		[]formFile{{"files", "id.png", "png"}},
	)
	rec := env.serve(req)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{
		"success": false,
		"duplicate": true,
		"message": "A client named \"Acme\" already exists",
		"existingFolders": [{"name":"Acme_2025-01-01","createdDate":"2025-01-01T08:00:00Z","webUrl":"https://x/Acme_2025-01-01"}]
	}`, rec.Body.String())

	assert.Empty(t, env.store.uploadedNames())
	assert.Empty(t, env.notifier.sent)
	assertNoTempFiles(t, env.tempDir)
}

func TestSubmit_Resubmission(t *testing.T) {
	env := newTestEnv(t)
	env.store.FindFoldersFunc = func(ctx context.Context, query string) ([]models.DriveItem, error) {
		return []models.DriveItem{
			{Name: "Acme_2025-01-01", IsFolder: true},
			{Name: "Acme_2025-02-01", IsFolder: true},
		}, nil
	}
	env.store.ListChildrenFunc = func(ctx context.Context, folder string) ([]models.DriveItem, error) {
		assert.Equal(t, "Acme_2025-01-01", folder)
		return []models.DriveItem{{Name: models.ResubmissionTrackingFile, CreatedDate: "2025-01-01T10:00:00Z"}}, nil
	}

	req := multipartRequest(t,
		[][2]string{{"repFullName", "Acme"}, {"allowDuplicate", "true"}, {"applicationType", "Corporate"}},
		nil,
	)
	rec := env.serve(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Acme_2025-01-01", out.ClientFolder)
	assert.Empty(t, out.UploadedFiles)
	assert.Equal(t, "https://ibvza.sharepoint.com/sites/AINexGen/sites/AINexGen/Gold Pre-Trade Clients/Acme_2025-01-01", out.SharePointLink)

	assert.Equal(t, []string{models.ClientInformationFile, models.ResubmissionTrackingFile}, env.store.uploadedNames())
	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, "New Corporate Application for Approval - Acme", env.notifier.sent[0].Subject)
}

func TestSubmit_TrackingLookupFailureIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.store.FindFoldersFunc = func(ctx context.Context, query string) ([]models.DriveItem, error) {
		return []models.DriveItem{{Name: "Acme_2025-01-01", IsFolder: true}}, nil
	}
	env.store.ListChildrenFunc = func(ctx context.Context, folder string) ([]models.DriveItem, error) {
		return nil, apperrors.NewStoreUnavailableError("list children", errors.New("throttled"))
	}

	rec := env.serve(multipartRequest(t, [][2]string{{"repFullName", "Acme"}, {"allowDuplicate", "true"}}, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, env.store.uploadedNames(), models.ResubmissionTrackingFile)
}

func TestTrackingEntries(t *testing.T) {
	env := newTestEnv(t)
	log := logger.NewTestLogger(t)

	env.store.ListChildrenFunc = func(ctx context.Context, folder string) ([]models.DriveItem, error) {
		return []models.DriveItem{
			{Name: "id.png", CreatedDate: "2025-01-01T09:00:00Z"},
			{Name: models.ResubmissionTrackingFile, CreatedDate: "2025-01-01T10:00:00Z"},
		}, nil
	}
	entries := env.handler.trackingEntries(context.Background(), "Acme", log)
	require.Len(t, entries, 2)
	assert.Equal(t, render.TrackingEntry{Date: "2025/01/01", Note: render.NoteOriginalSubmission}, entries[0])
	assert.Equal(t, render.TrackingEntry{Date: "2025/03/04 14:05:00", Note: render.NoteResubmission}, entries[1])

	env.store.ListChildrenFunc = func(ctx context.Context, folder string) ([]models.DriveItem, error) {
		return []models.DriveItem{}, nil
	}
	entries = env.handler.trackingEntries(context.Background(), "Acme", log)
	require.Len(t, entries, 1)
	assert.Equal(t, render.NoteResubmission, entries[0].Note)
}

func TestSubmit_NotificationFailure(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.Err = apperrors.NewNotifyFailedError(notify.ProviderGraph, errors.New("Access is denied."))

	rec := env.serve(multipartRequest(t, [][2]string{{"fullName", "Jane"}}, []formFile{{"files", "a.txt", "a"}}))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Error processing submission: Approval notification failed: Access is denied."}`, rec.Body.String())
	assert.ElementsMatch(t, []string{"a.txt", models.ClientInformationFile}, env.store.uploadedNames())
	assertNoTempFiles(t, env.tempDir)
}

func TestSubmit_ClientInformationUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.UploadFunc = func(ctx context.Context, fileName, folder string) (string, error) {
		if fileName == models.ClientInformationFile {
			return "", apperrors.NewUploadFailedError(fileName, errors.New("locked"))
		}
		return "", nil
	}

	rec := env.serve(multipartRequest(t, [][2]string{{"fullName", "Jane"}}, nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error processing submission: Upload of Client_Information.pdf failed: locked")
	assert.Empty(t, env.notifier.sent)
}

func TestSubmit_ErrorDetailsHidden(t *testing.T) {
	env := newTestEnv(t)
	env.handler.config.ExposeErrorDetails = false
	env.notifier.Err = apperrors.NewNotifyFailedError(notify.ProviderGraph, errors.New("tenant secret"))

	rec := env.serve(multipartRequest(t, [][2]string{{"fullName", "Jane"}}, nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Error processing submission: NOTIFY_FAILED"}`, rec.Body.String())
}

func TestSubmit_BadRequests(t *testing.T) {
	t.Run("not multipart", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(`{"fullName":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := env.serve(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, env.store.findCalls)
	})

	t.Run("file too large", func(t *testing.T) {
		env := newTestEnv(t)
		env.handler.config.MaxFileBytes = 4
		rec := env.serve(multipartRequest(t, [][2]string{{"fullName", "x"}}, []formFile{{"files", "big.bin", "0123456789"}}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "big.bin exceeds the maximum size")
		assert.Zero(t, env.store.findCalls)
		assertNoTempFiles(t, env.tempDir)
	})

	t.Run("request too large", func(t *testing.T) {
		env := newTestEnv(t)
		env.handler.config.MaxRequestBytes = 64
		rec := env.serve(multipartRequest(t, [][2]string{{"fullName", strings.Repeat("x", 512)}}, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertNoTempFiles(t, env.tempDir)
	})

	t.Run("temp dir unavailable", func(t *testing.T) {
		env := newTestEnv(t)
		env.handler.config.TempDir = filepath.Join(env.tempDir, "missing")
		rec := env.serve(multipartRequest(t, [][2]string{{"fullName", "x"}}, []formFile{{"files", "id.png", "png"}}))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgErrorPrefix)
		assert.Zero(t, env.store.findCalls)
	})

	t.Run("truncated body", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader("--xyz\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nvalue"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
		rec := env.serve(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestParseSubmission(t *testing.T) {
	cfg := LoadConfig()
	cfg.TempDir = t.TempDir()

	req := multipartRequest(t,
		[][2]string{
			{"applicantType", "individual"},
			{"fullName", "First"},
			{"fullName", "Second"},
			{"signatureData", "data:image/png;base64,AAAA"},
		},
		[]formFile{{"files", "a.pdf", "aaa"}, {"attachment", "../../etc/b.pdf", "bb"}},
	)
	sub, cleanup, err := parseSubmission(httptest.NewRecorder(), req, cfg)
	require.NoError(t, err)

	assert.Equal(t, "individual", sub.ApplicantType)
	assert.Equal(t, "First", sub.Fields["fullName"])
	assert.Equal(t, "data:image/png;base64,AAAA", sub.SignatureData)
	_, inFields := sub.Fields["signatureData"]
	assert.False(t, inFields)

	require.Len(t, sub.Files, 2)
	assert.Equal(t, "a.pdf", sub.Files[0].Name)
	assert.Equal(t, int64(3), sub.Files[0].Size)
	assert.Equal(t, "b.pdf", sub.Files[1].Name)
	data, err := os.ReadFile(sub.Files[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "bb", string(data))

	cleanup()
	assertNoTempFiles(t, cfg.TempDir)
}

func TestSubmit_SameClientSerialized(t *testing.T) {
	env := newTestEnv(t)
	env.store.FindFoldersFunc = func(ctx context.Context, query string) ([]models.DriveItem, error) {
		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		var out []models.DriveItem
		seen := map[string]bool{}
		for _, u := range env.store.uploads {
			if !seen[u.Folder] && strings.Contains(strings.ToLower(u.Folder), strings.ToLower(query)) {
				seen[u.Folder] = true
				out = append(out, models.DriveItem{Name: u.Folder, IsFolder: true})
			}
		}
		return out, nil
	}

	reqs := []*http.Request{
		multipartRequest(t, [][2]string{{"fullName", "Racer"}}, nil),
		multipartRequest(t, [][2]string{{"fullName", "racer"}}, nil),
	}
	codes := make([]int, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = env.serve(req).Code
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)
	assert.Len(t, env.notifier.sent, 1)
}
