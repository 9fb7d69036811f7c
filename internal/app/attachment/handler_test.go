package attachment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inquiryfiles/internal/middleware"
	"inquiryfiles/internal/providers/fileaccess"
)

func newTestRouter(t *testing.T, svc Service) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Identity())
	handler := NewHandler(svc, IngestLimits{MaxFileSize: 1 << 20, MaxFiles: 5}, zap.NewNop())
	RegisterRoutes(engine.Group("/api"), handler)
	return engine
}

func perform(engine *gin.Engine, method, target, userID string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutRouteGoneStatus(t *testing.T) {
	remote := &fakeRemote{checkoutOutcome: fileaccess.OutcomeIncomplete}
	svc, db, _ := newCoordinator(t, remote, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/checkout", att.ID), "alice", nil, "")
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestCheckoutRouteTransportFailureStatus(t *testing.T) {
	remote := &fakeRemote{
		checkoutOutcome: fileaccess.OutcomeTransportFailure,
		checkoutErr:     fmt.Errorf("checkout: %w", fileaccess.ErrRemoteUnavailable),
	}
	svc, db, _ := newCoordinator(t, remote, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/checkout", att.ID), "alice", nil, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestMutatingRoutesRequireIdentity(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	targets := []struct {
		method string
		path   string
	}{
		{"POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/checkout", att.ID)},
		{"POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/undocheckout", att.ID)},
		{"DELETE", fmt.Sprintf("/api/inquiries/10/attachments/%d/versions/1", att.ID)},
		{"POST", "/api/inquiries/10/attachments/commit"},
	}
	for _, target := range targets {
		rec := perform(engine, target.method, target.path, "", nil, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without identity: expected 401, got %d", target.method, target.path, rec.Code)
		}
	}
}

func TestDownloadRouteSetsHeaders(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "notes.txt",
		ContentType:  "text/plain",
		DocumentData: []byte("note body"),
	})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "GET", fmt.Sprintf("/api/inquiries/10/attachments/%d/download", att.ID), "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("x-filename"); got != "notes.txt" {
		t.Fatalf("unexpected x-filename %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="notes.txt"`) {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/plain" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "note body" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadRouteUnknownAttachment(t *testing.T) {
	svc, _, _ := newCoordinator(t, &fakeRemote{}, nil)
	engine := newTestRouter(t, svc)

	rec := perform(engine, "GET", "/api/inquiries/10/attachments/4040/download", "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckinRouteRejectsNonMultipart(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	body := bytes.NewBufferString(`{"content": "zzz"}`)
	rec := perform(engine, "POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/checkin", att.ID), "alice", body, "application/json")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestCheckinRoutePersistsUploadedContent(t *testing.T) {
	remote := &fakeRemote{undoOutcome: fileaccess.OutcomeSuccess}
	svc, db, _ := newCoordinator(t, remote, nil)
	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "report.docx",
		DocumentData: []byte("old"),
		CheckedOut:   true,
		CheckedOutBy: "alice",
	})
	seedVersion(t, db, &Version{AttachmentID: att.ID, VersionNo: 1, DocumentData: []byte("old")})
	engine := newTestRouter(t, svc)

	body, contentType := buildMultipart(t, []filePart{
		{field: "file", name: "report.docx", contentType: "application/msword", data: "edited"},
	}, nil)

	rec := perform(engine, "POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/checkin", att.ID), "alice", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored Attachment
	if err := db.First(&stored, att.ID).Error; err != nil {
		t.Fatalf("failed to reload attachment: %v", err)
	}
	if string(stored.DocumentData) != "edited" {
		t.Fatalf("expected new payload persisted, got %q", stored.DocumentData)
	}
}

func TestPreviewRouteRendersText(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "notes.txt",
		ContentType:  "text/plain",
		DocumentData: []byte("a <b> c"),
	})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "GET", fmt.Sprintf("/api/inquiries/10/attachments/%d/preview", att.ID), "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("expected html response, got %s", got)
	}
	if !strings.Contains(rec.Body.String(), "&lt;b&gt;") {
		t.Fatalf("expected escaped markup, got %q", rec.Body.String())
	}
}

func TestPreviewRouteFallsBackToRaw(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "data.bin",
		ContentType:  "application/octet-stream",
		DocumentData: []byte{0x01, 0x02, 0x03},
	})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "GET", fmt.Sprintf("/api/inquiries/10/attachments/%d/preview", att.ID), "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("x-filename"); got != "data.bin" {
		t.Fatalf("fallback must serve the raw file, got x-filename %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("unexpected body %v", rec.Body.Bytes())
	}
}

func TestDeleteVersionRouteLocalOnly(t *testing.T) {
	remote := &fakeRemote{}
	svc, db, _ := newCoordinator(t, remote, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	seedVersion(t, db, &Version{AttachmentID: att.ID, VersionNo: 1})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "DELETE",
		fmt.Sprintf("/api/inquiries/10/attachments/%d/versions/1?remote_version_id=0", att.ID), "alice", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if remote.deleteCalls != 0 {
		t.Fatalf("remote_version_id=0 must never call the document service")
	}
}

func TestUpdateCommentRoute(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	body := bytes.NewBufferString(`{"comment": "ready for review"}`)
	rec := perform(engine, "PATCH", fmt.Sprintf("/api/inquiries/10/attachments/%d/comment", att.ID), "alice", body, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored Attachment
	if err := db.First(&stored, att.ID).Error; err != nil {
		t.Fatalf("failed to reload attachment: %v", err)
	}
	if stored.Comment != "ready for review" {
		t.Fatalf("comment not persisted, got %q", stored.Comment)
	}
}

func TestListRouteScopesToInquiry(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "b.txt", DocumentData: []byte("y")})
	seedAttachment(t, db, &Attachment{InquiryID: 11, DocumentName: "c.txt", DocumentData: []byte("z")})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "GET", "/api/inquiries/10/attachments", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid list body: %v", err)
	}
	if len(resp.Attachments) != 2 {
		t.Fatalf("expected 2 attachments for inquiry 10, got %d", len(resp.Attachments))
	}
}

func TestArchiveRouteWithoutStore(t *testing.T) {
	svc, db, _ := newCoordinator(t, &fakeRemote{}, nil)
	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "a.txt", DocumentData: []byte("x")})
	engine := newTestRouter(t, svc)

	rec := perform(engine, "POST", fmt.Sprintf("/api/inquiries/10/attachments/%d/archive", att.ID), "alice", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
