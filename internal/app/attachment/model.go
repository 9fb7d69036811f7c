package attachment

import (
	"time"
)

// Attachment is the metadata row for a single inquiry attachment. The binary
// payload lives either inline in DocumentData or behind URL in the external
// document service, never both.
type Attachment struct {
	ID             uint64     `json:"id" gorm:"primaryKey"`
	InquiryID      uint64     `json:"inquiry_id" gorm:"index;not null"`
	DocumentName   string     `json:"document_name" gorm:"type:varchar(255);not null"`
	ContentType    string     `json:"content_type" gorm:"type:varchar(100)"`
	DocumentData   []byte     `json:"-"`
	URL            string     `json:"url,omitempty" gorm:"type:varchar(500)"`
	Comment        string     `json:"comment" gorm:"type:varchar(1000)"`
	IsClosing      bool       `json:"is_closing"`
	IsRegulatory   bool       `json:"is_regulatory"`
	UploadedBy     string     `json:"uploaded_by" gorm:"type:varchar(100)"`
	DelegateUserID string     `json:"delegate_user_id,omitempty" gorm:"type:varchar(100)"`
	CheckedOut     bool       `json:"checked_out"`
	CheckedOutBy   string     `json:"checked_out_by,omitempty" gorm:"type:varchar(100)"`
	Deleted        bool       `json:"-" gorm:"index;default:false"`
	ArchiveObject  string     `json:"archive_object,omitempty" gorm:"type:varchar(500)"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// Version is one entry of an attachment's version history. Versions produced
// by checkin snapshot the payload inline; versions that only exist in the
// external document service carry a RemoteVersionID and no local payload.
type Version struct {
	ID              uint64    `json:"id" gorm:"primaryKey"`
	AttachmentID    uint64    `json:"attachment_id" gorm:"uniqueIndex:idx_attachment_version;not null"`
	VersionNo       int       `json:"version_no" gorm:"uniqueIndex:idx_attachment_version;not null"`
	RemoteVersionID int64     `json:"remote_version_id"`
	DocumentData    []byte    `json:"-"`
	UploadedBy      string    `json:"uploaded_by" gorm:"type:varchar(100)"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Version) TableName() string {
	return "attachment_versions"
}

// Temporary is an uploaded file that is not yet linked to an inquiry. It is
// owned by the uploading user until committed or purged.
type Temporary struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	FileID        string    `json:"file_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	SessionUserID string    `json:"session_user_id" gorm:"type:varchar(100);index"`
	DocumentName  string    `json:"document_name" gorm:"type:varchar(255);not null"`
	ContentType   string    `json:"content_type" gorm:"type:varchar(100)"`
	DocumentData  []byte    `json:"-"`
	IsClosing     bool      `json:"is_closing"`
	IsRegulatory  bool      `json:"is_regulatory"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Temporary) TableName() string {
	return "temporary_attachments"
}

// FilePayload is one decoded file part of a multipart upload body.
type FilePayload struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// SaveOptions carries the per-request attributes applied to every file of an
// upload batch.
type SaveOptions struct {
	UserID         string
	DelegateUserID string
	Closing        bool
	Regulatory     bool
}

// ResolvedFile is a fully materialized attachment payload ready to serve.
type ResolvedFile struct {
	Data        []byte
	FileName    string
	ContentType string
}

// ArchiveResult describes where an archived attachment copy was stored.
type ArchiveResult struct {
	ObjectName string    `json:"object_name"`
	URL        string    `json:"url,omitempty"`
	ArchivedAt time.Time `json:"archived_at"`
}

type ListResponse struct {
	Attachments []*Attachment `json:"attachments"`
}

type VersionListResponse struct {
	Versions []*Version `json:"versions"`
}

type TemporaryListResponse struct {
	Temporary []*Temporary `json:"temporary_attachments"`
}

type UpdateCommentRequest struct {
	Comment string `json:"comment"`
}

type CommitRequest struct {
	FileIDs []string `json:"file_ids" binding:"required"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
