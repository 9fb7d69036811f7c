package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inquiryfiles/internal/app/attachment"
	"inquiryfiles/internal/middleware"
	"inquiryfiles/internal/providers/fileaccess"
)

// stubDocumentClient satisfies the coordinator's remote interfaces; upload
// paths never reach the document service.
type stubDocumentClient struct{}

func (stubDocumentClient) Checkout(ctx context.Context, inquiryID, attachmentID uint64) (fileaccess.Outcome, error) {
	return fileaccess.OutcomeSuccess, nil
}

func (stubDocumentClient) UndoCheckout(ctx context.Context, inquiryID, attachmentID uint64) (fileaccess.Outcome, error) {
	return fileaccess.OutcomeSuccess, nil
}

func (stubDocumentClient) DeleteFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (fileaccess.Outcome, error) {
	return fileaccess.OutcomeSuccess, nil
}

func (stubDocumentClient) GetFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (*fileaccess.File, error) {
	return nil, fileaccess.ErrRemoteUnavailable
}

func (stubDocumentClient) GetFile(ctx context.Context, inquiryID, attachmentID uint64) (*fileaccess.File, error) {
	return nil, fileaccess.ErrRemoteUnavailable
}

func newUploadRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:upload_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&attachment.Attachment{}, &attachment.Version{}, &attachment.Temporary{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := attachment.NewRepository(db)
	resolver := attachment.NewResolver(repo, stubDocumentClient{}, zap.NewNop())
	svc := attachment.NewService(repo, db, stubDocumentClient{}, resolver, nil, nil, 30*time.Minute, zap.NewNop())

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.Identity())
	handler := NewHandler(svc, attachment.IngestLimits{MaxFileSize: 1 << 20, MaxFiles: 5}, zap.NewNop())
	RegisterRoutes(engine.Group("/api"), handler)
	return engine, db
}

type uploadFile struct {
	name        string
	contentType string
	data        string
}

func multipartBody(t *testing.T, files ...uploadFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		fw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := fw.Write([]byte(f.data)); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func post(engine *gin.Engine, target, userID string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest("POST", target, body)
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

func TestUploadPersistsFiles(t *testing.T) {
	engine, db := newUploadRouter(t)

	body, contentType := multipartBody(t,
		uploadFile{name: "report.pdf", contentType: "application/pdf", data: "pdf bytes"},
		uploadFile{name: "notes.txt", contentType: "text/plain", data: "note bytes"},
	)

	req := httptest.NewRequest("POST", "/api/inquiries/10/attachments", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-Id", "alice")
	req.Header.Set("X-Delegate-User-Id", "manager-7")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp attachment.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Attachments) != 2 {
		t.Fatalf("expected 2 saved attachments, got %d", len(resp.Attachments))
	}
	if resp.Attachments[0].DocumentName != "report.pdf" {
		t.Fatalf("unexpected first document %s", resp.Attachments[0].DocumentName)
	}
	if resp.Attachments[0].UploadedBy != "alice" || resp.Attachments[0].DelegateUserID != "manager-7" {
		t.Fatalf("uploader identity not recorded: %s / %s",
			resp.Attachments[0].UploadedBy, resp.Attachments[0].DelegateUserID)
	}

	var versions int64
	if err := db.Model(&attachment.Version{}).Where("version_no = ?", 1).Count(&versions).Error; err != nil {
		t.Fatalf("failed to count versions: %v", err)
	}
	if versions != 2 {
		t.Fatalf("every saved file must open its history at version 1, got %d rows", versions)
	}
}

func TestUploadVariantsFlagDocuments(t *testing.T) {
	engine, _ := newUploadRouter(t)

	body, contentType := multipartBody(t, uploadFile{name: "closing.pdf", data: "x"})
	rec := post(engine, "/api/inquiries/10/attachments/closing", "alice", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("closing upload: expected 200, got %d", rec.Code)
	}
	var closing attachment.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &closing); err != nil {
		t.Fatalf("invalid closing response: %v", err)
	}
	if len(closing.Attachments) != 1 || !closing.Attachments[0].IsClosing {
		t.Fatalf("closing route must flag the document")
	}

	body, contentType = multipartBody(t, uploadFile{name: "filing.pdf", data: "y"})
	rec = post(engine, "/api/inquiries/10/attachments/regulatory", "alice", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("regulatory upload: expected 200, got %d", rec.Code)
	}
	var regulatory attachment.ListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &regulatory); err != nil {
		t.Fatalf("invalid regulatory response: %v", err)
	}
	if len(regulatory.Attachments) != 1 || !regulatory.Attachments[0].IsRegulatory {
		t.Fatalf("regulatory route must flag the document")
	}
}

func TestUploadRejectsNonMultipart(t *testing.T) {
	engine, _ := newUploadRouter(t)

	body := bytes.NewBufferString(`{"file": "zzz"}`)
	rec := post(engine, "/api/inquiries/10/attachments", "alice", body, "application/json")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestUploadRequiresIdentity(t *testing.T) {
	engine, db := newUploadRouter(t)

	body, contentType := multipartBody(t, uploadFile{name: "report.pdf", data: "x"})
	rec := post(engine, "/api/inquiries/10/attachments", "", body, contentType)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var count int64
	if err := db.Model(&attachment.Attachment{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count attachments: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected upload must not persist rows, found %d", count)
	}
}

func TestUploadInvalidInquiryID(t *testing.T) {
	engine, _ := newUploadRouter(t)

	body, contentType := multipartBody(t, uploadFile{name: "report.pdf", data: "x"})
	rec := post(engine, "/api/inquiries/abc/attachments", "alice", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadTemporaryReturnsFileIDs(t *testing.T) {
	engine, db := newUploadRouter(t)

	body, contentType := multipartBody(t, uploadFile{name: "draft.docx", contentType: "application/msword", data: "draft"})
	rec := post(engine, "/api/attachments/temporary", "alice", body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp attachment.TemporaryListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Temporary) != 1 {
		t.Fatalf("expected 1 temporary file, got %d", len(resp.Temporary))
	}
	if resp.Temporary[0].FileID == "" {
		t.Fatalf("temporary upload must assign a file id")
	}
	if resp.Temporary[0].SessionUserID != "alice" {
		t.Fatalf("temporary file must belong to the uploader, got %q", resp.Temporary[0].SessionUserID)
	}

	var stored attachment.Temporary
	if err := db.Where("file_id = ?", resp.Temporary[0].FileID).First(&stored).Error; err != nil {
		t.Fatalf("temporary row not persisted: %v", err)
	}
}
