package attachment

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inquiryfiles/internal/providers/fileaccess"
	"inquiryfiles/internal/providers/minio"
	"inquiryfiles/internal/providers/redis"
)

var (
	// ErrRemoteIncomplete is returned when the document service ran the
	// requested operation but reported it incomplete. The lock or version the
	// caller targeted no longer exists on the remote side.
	ErrRemoteIncomplete = errors.New("document service reported operation incomplete")
	// ErrEmptyPayload is returned when a checkin body carries no file content.
	ErrEmptyPayload = errors.New("checkin payload is empty")
	// ErrInvalidVersion is returned for version numbers below 1.
	ErrInvalidVersion = errors.New("version number must be positive")
	// ErrArchiveUnavailable is returned when no archive store is configured.
	ErrArchiveUnavailable = errors.New("archive store is not configured")
)

// RemoteDocumentClient is the slice of the document service client the
// coordinator drives. The concrete implementation lives in
// providers/fileaccess.
type RemoteDocumentClient interface {
	Checkout(ctx context.Context, inquiryID, attachmentID uint64) (fileaccess.Outcome, error)
	UndoCheckout(ctx context.Context, inquiryID, attachmentID uint64) (fileaccess.Outcome, error)
	GetFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (*fileaccess.File, error)
	DeleteFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (fileaccess.Outcome, error)
}

// BlobResolver materializes an attachment payload from its metadata row.
type BlobResolver interface {
	Resolve(ctx context.Context, inquiryID, attachmentID uint64) (*ResolvedFile, error)
}

// ArchiveStore persists long term copies of attachment payloads.
type ArchiveStore interface {
	Put(ctx context.Context, objectName string, data []byte, contentType string) error
	PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type Service interface {
	List(ctx context.Context, inquiryID uint64) ([]*Attachment, error)
	Get(ctx context.Context, inquiryID, attachmentID uint64) (*Attachment, error)
	Versions(ctx context.Context, inquiryID, attachmentID uint64) ([]*Version, error)
	UpdateComment(ctx context.Context, inquiryID, attachmentID uint64, comment string) error

	Download(ctx context.Context, inquiryID, attachmentID uint64) (*ResolvedFile, error)
	DownloadVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (*ResolvedFile, error)

	CheckOut(ctx context.Context, inquiryID, attachmentID uint64, userID string) (*ResolvedFile, error)
	CheckIn(ctx context.Context, inquiryID, attachmentID uint64, userID string, payload FilePayload) error
	UndoCheckout(ctx context.Context, inquiryID, attachmentID uint64) error
	DeleteVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int, remoteVersionID int64) error

	SaveUpload(ctx context.Context, inquiryID uint64, payloads []FilePayload, opts SaveOptions) ([]*Attachment, error)
	SaveTemporaries(ctx context.Context, payloads []FilePayload, opts SaveOptions) ([]*Temporary, error)
	CommitTemporaries(ctx context.Context, inquiryID uint64, fileIDs []string, userID string) ([]*Attachment, error)
	ListTemporaries(ctx context.Context, userID string) ([]*Temporary, error)
	DeleteTemporary(ctx context.Context, fileID, userID string) error
	PurgeExpiredTemporaries(ctx context.Context, maxAge time.Duration) (int64, error)

	Archive(ctx context.Context, inquiryID, attachmentID uint64) (*ArchiveResult, error)
}

type service struct {
	repo        Repository
	db          *gorm.DB
	remote      RemoteDocumentClient
	resolver    BlobResolver
	redisP      *redis.RedisProvider
	archive     ArchiveStore
	checkoutTTL time.Duration
	logger      *zap.Logger
}

func NewService(
	repo Repository,
	db *gorm.DB,
	remote RemoteDocumentClient,
	resolver BlobResolver,
	redisP *redis.RedisProvider,
	archive ArchiveStore,
	checkoutTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &service{
		repo:        repo,
		db:          db,
		remote:      remote,
		resolver:    resolver,
		redisP:      redisP,
		archive:     archive,
		checkoutTTL: checkoutTTL,
		logger:      logger,
	}
}

func checkoutKey(inquiryID, attachmentID uint64) string {
	return fmt.Sprintf("checkout:%d:%d", inquiryID, attachmentID)
}

func newFileID() string {
	return uuid.New().String()
}

func (s *service) List(ctx context.Context, inquiryID uint64) ([]*Attachment, error) {
	return s.repo.ListByInquiry(ctx, inquiryID)
}

// Get returns the metadata row. When the checkout cache holds a fresher
// holder for the attachment, the checkout fields of the response reflect it.
// The cache is advisory only and never blocks anything.
func (s *service) Get(ctx context.Context, inquiryID, attachmentID uint64) (*Attachment, error) {
	att, err := s.repo.GetByID(ctx, inquiryID, attachmentID)
	if err != nil {
		return nil, err
	}

	if s.redisP != nil {
		holder, err := s.redisP.Get(ctx, checkoutKey(inquiryID, attachmentID)).Result()
		if err == nil && holder != "" {
			att.CheckedOut = true
			att.CheckedOutBy = holder
		}
	}

	return att, nil
}

func (s *service) Versions(ctx context.Context, inquiryID, attachmentID uint64) ([]*Version, error) {
	if _, err := s.repo.GetByID(ctx, inquiryID, attachmentID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, attachmentID)
}

func (s *service) UpdateComment(ctx context.Context, inquiryID, attachmentID uint64, comment string) error {
	if err := s.repo.UpdateComment(ctx, inquiryID, attachmentID, comment); err != nil {
		return err
	}
	s.logger.Info("Updated attachment comment",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
	)
	return nil
}

func (s *service) Download(ctx context.Context, inquiryID, attachmentID uint64) (*ResolvedFile, error) {
	return s.resolver.Resolve(ctx, inquiryID, attachmentID)
}

func (s *service) DownloadVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (*ResolvedFile, error) {
	if versionNo < 1 {
		return nil, ErrInvalidVersion
	}

	att, err := s.repo.GetByID(ctx, inquiryID, attachmentID)
	if err != nil {
		return nil, err
	}
	v, err := s.repo.GetVersion(ctx, attachmentID, versionNo)
	if err != nil {
		return nil, err
	}

	if v.RemoteVersionID > 0 {
		file, err := s.remote.GetFileByVersion(ctx, inquiryID, attachmentID, v.VersionNo)
		if err != nil {
			return nil, fmt.Errorf("fetch version from document service: %w", err)
		}
		return &ResolvedFile{Data: file.Data, FileName: file.FileName, ContentType: att.ContentType}, nil
	}

	if len(v.DocumentData) == 0 {
		return nil, ErrPayloadMissing
	}
	return &ResolvedFile{Data: v.DocumentData, FileName: att.DocumentName, ContentType: att.ContentType}, nil
}

// CheckOut acquires the edit lock on the document service and then fetches
// the current payload. The remote is the lock authority; the local row and
// the redis key only mirror its answer for display.
func (s *service) CheckOut(ctx context.Context, inquiryID, attachmentID uint64, userID string) (*ResolvedFile, error) {
	if _, err := s.repo.GetByID(ctx, inquiryID, attachmentID); err != nil {
		return nil, err
	}

	outcome, err := s.remote.Checkout(ctx, inquiryID, attachmentID)
	if err != nil {
		s.logger.Error("Checkout call failed",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("checkout attachment: %w", err)
	}
	if outcome != fileaccess.OutcomeSuccess {
		return nil, ErrRemoteIncomplete
	}

	file, err := s.resolver.Resolve(ctx, inquiryID, attachmentID)
	if err != nil {
		s.logger.Warn("Checkout acquired but payload fetch failed",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
		return nil, err
	}

	s.markCheckedOut(ctx, inquiryID, attachmentID, userID)

	s.logger.Info("Checked out attachment",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
		zap.String("user_id", userID),
	)
	return file, nil
}

// CheckIn persists the edited payload, appends a version snapshot and
// releases the remote lock. The local write and the remote release commit or
// roll back together: a failed release leaves the row untouched.
func (s *service) CheckIn(ctx context.Context, inquiryID, attachmentID uint64, userID string, payload FilePayload) error {
	if len(payload.Data) == 0 {
		return ErrEmptyPayload
	}

	att, err := s.repo.GetByID(ctx, inquiryID, attachmentID)
	if err != nil {
		return err
	}

	// A retried checkin after a successful one finds the row already
	// released with identical content. Treat it as done instead of failing
	// the caller or growing the version history.
	if !att.CheckedOut && len(att.DocumentData) > 0 &&
		sha256.Sum256(att.DocumentData) == sha256.Sum256(payload.Data) {
		s.logger.Info("Checkin replay detected, content already persisted",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
		)
		return nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNo int
		if err := tx.Model(&Version{}).
			Where("attachment_id = ?", attachmentID).
			Select("COALESCE(MAX(version_no), 0)").
			Scan(&maxNo).Error; err != nil {
			return err
		}

		snapshot := &Version{
			AttachmentID: attachmentID,
			VersionNo:    maxNo + 1,
			DocumentData: payload.Data,
			UploadedBy:   userID,
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"document_data":  payload.Data,
			"url":            "",
			"checked_out":    false,
			"checked_out_by": "",
		}
		if payload.FileName != "" {
			updates["document_name"] = payload.FileName
		}
		if payload.ContentType != "" {
			updates["content_type"] = payload.ContentType
		}
		if err := tx.Model(&Attachment{}).
			Where("inquiry_id = ? AND id = ?", inquiryID, attachmentID).
			Updates(updates).Error; err != nil {
			return err
		}

		outcome, err := s.remote.UndoCheckout(ctx, inquiryID, attachmentID)
		if err != nil {
			return fmt.Errorf("release checkout: %w", err)
		}
		if outcome != fileaccess.OutcomeSuccess {
			return ErrRemoteIncomplete
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Checkin failed",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
		return err
	}

	s.clearCheckedOut(ctx, inquiryID, attachmentID)

	s.logger.Info("Checked in attachment",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
		zap.String("user_id", userID),
		zap.Int("size", len(payload.Data)),
	)
	return nil
}

// UndoCheckout releases the remote lock and discards any pending edit.
func (s *service) UndoCheckout(ctx context.Context, inquiryID, attachmentID uint64) error {
	if _, err := s.repo.GetByID(ctx, inquiryID, attachmentID); err != nil {
		return err
	}

	outcome, err := s.remote.UndoCheckout(ctx, inquiryID, attachmentID)
	if err != nil {
		s.logger.Error("Undo checkout call failed",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
		return fmt.Errorf("undo checkout: %w", err)
	}
	if outcome != fileaccess.OutcomeSuccess {
		return ErrRemoteIncomplete
	}

	s.clearCheckedOut(ctx, inquiryID, attachmentID)

	s.logger.Info("Undid checkout",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
	)
	return nil
}

// DeleteVersion removes one entry of the version history. When the version
// also lives on the document service the remote copy is deleted first; local
// history is never dropped while a remote copy is still confirmed alive.
// remoteVersionID zero means the version is local only and no remote call is
// made; a negative value means unknown and the stored row decides.
func (s *service) DeleteVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int, remoteVersionID int64) error {
	if versionNo < 1 {
		return ErrInvalidVersion
	}

	if _, err := s.repo.GetByID(ctx, inquiryID, attachmentID); err != nil {
		return err
	}

	if remoteVersionID < 0 {
		remoteVersionID = 0
		if v, err := s.repo.GetVersion(ctx, attachmentID, versionNo); err == nil {
			remoteVersionID = v.RemoteVersionID
		}
	}

	if remoteVersionID > 0 {
		outcome, err := s.remote.DeleteFileByVersion(ctx, inquiryID, attachmentID, versionNo)
		if err != nil {
			s.logger.Error("Remote version delete failed",
				zap.Uint64("inquiry_id", inquiryID),
				zap.Uint64("attachment_id", attachmentID),
				zap.Int("version_no", versionNo),
				zap.Error(err),
			)
			return fmt.Errorf("delete remote version: %w", err)
		}
		if outcome != fileaccess.OutcomeSuccess {
			return ErrRemoteIncomplete
		}
	}

	rows, err := s.repo.DeleteVersion(ctx, attachmentID, versionNo)
	if err != nil {
		return fmt.Errorf("delete version history: %w", err)
	}
	if rows == 0 && remoteVersionID == 0 {
		return ErrNotFound
	}

	s.logger.Info("Deleted attachment version",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
		zap.Int("version_no", versionNo),
		zap.Int64("remote_version_id", remoteVersionID),
		zap.Int64("local_rows", rows),
	)
	return nil
}

// SaveUpload stores a batch of files as attachments of an inquiry. The batch
// is best effort: a file that fails to persist is logged and skipped, and
// the returned list holds only the files that made it.
func (s *service) SaveUpload(ctx context.Context, inquiryID uint64, payloads []FilePayload, opts SaveOptions) ([]*Attachment, error) {
	saved := make([]*Attachment, 0, len(payloads))

	for _, p := range payloads {
		att := &Attachment{
			InquiryID:      inquiryID,
			DocumentName:   p.FileName,
			ContentType:    p.ContentType,
			DocumentData:   p.Data,
			UploadedBy:     opts.UserID,
			DelegateUserID: opts.DelegateUserID,
			IsClosing:      opts.Closing,
			IsRegulatory:   opts.Regulatory,
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(att).Error; err != nil {
				return err
			}
			return tx.Create(&Version{
				AttachmentID: att.ID,
				VersionNo:    1,
				DocumentData: p.Data,
				UploadedBy:   opts.UserID,
			}).Error
		})
		if err != nil {
			s.logger.Error("Failed to persist uploaded file",
				zap.Uint64("inquiry_id", inquiryID),
				zap.String("file_name", p.FileName),
				zap.Error(err),
			)
			continue
		}

		saved = append(saved, att)
	}

	s.logger.Info("Saved uploaded files",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Int("received", len(payloads)),
		zap.Int("saved", len(saved)),
	)
	return saved, nil
}

// SaveTemporaries stores a batch of files without linking them to an
// inquiry. Each file gets a generated file id the caller uses to commit or
// discard it later.
func (s *service) SaveTemporaries(ctx context.Context, payloads []FilePayload, opts SaveOptions) ([]*Temporary, error) {
	saved := make([]*Temporary, 0, len(payloads))

	for _, p := range payloads {
		tmp := &Temporary{
			FileID:        newFileID(),
			SessionUserID: opts.UserID,
			DocumentName:  p.FileName,
			ContentType:   p.ContentType,
			DocumentData:  p.Data,
			IsClosing:     opts.Closing,
			IsRegulatory:  opts.Regulatory,
		}
		if err := s.repo.CreateTemporary(ctx, tmp); err != nil {
			s.logger.Error("Failed to persist temporary file",
				zap.String("file_name", p.FileName),
				zap.Error(err),
			)
			continue
		}
		saved = append(saved, tmp)
	}

	s.logger.Info("Saved temporary files",
		zap.String("user_id", opts.UserID),
		zap.Int("received", len(payloads)),
		zap.Int("saved", len(saved)),
	)
	return saved, nil
}

// CommitTemporaries promotes previously uploaded temporary files into
// attachments of the given inquiry. Unknown ids and ids owned by another
// user are skipped.
func (s *service) CommitTemporaries(ctx context.Context, inquiryID uint64, fileIDs []string, userID string) ([]*Attachment, error) {
	committed := make([]*Attachment, 0, len(fileIDs))

	for _, fileID := range fileIDs {
		tmp, err := s.repo.GetTemporaryByFileID(ctx, fileID)
		if err != nil {
			s.logger.Warn("Temporary file missing during commit",
				zap.String("file_id", fileID),
				zap.Error(err),
			)
			continue
		}
		if tmp.SessionUserID != userID {
			s.logger.Warn("Temporary file owned by another user",
				zap.String("file_id", fileID),
			)
			continue
		}

		att := &Attachment{
			InquiryID:    inquiryID,
			DocumentName: tmp.DocumentName,
			ContentType:  tmp.ContentType,
			DocumentData: tmp.DocumentData,
			UploadedBy:   tmp.SessionUserID,
			IsClosing:    tmp.IsClosing,
			IsRegulatory: tmp.IsRegulatory,
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(att).Error; err != nil {
				return err
			}
			if err := tx.Create(&Version{
				AttachmentID: att.ID,
				VersionNo:    1,
				DocumentData: tmp.DocumentData,
				UploadedBy:   tmp.SessionUserID,
			}).Error; err != nil {
				return err
			}
			return tx.Where("file_id = ?", fileID).Delete(&Temporary{}).Error
		})
		if err != nil {
			s.logger.Error("Failed to commit temporary file",
				zap.Uint64("inquiry_id", inquiryID),
				zap.String("file_id", fileID),
				zap.Error(err),
			)
			continue
		}

		committed = append(committed, att)
	}

	s.logger.Info("Committed temporary files",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Int("requested", len(fileIDs)),
		zap.Int("committed", len(committed)),
	)
	return committed, nil
}

func (s *service) ListTemporaries(ctx context.Context, userID string) ([]*Temporary, error) {
	return s.repo.ListTemporariesByUser(ctx, userID)
}

func (s *service) DeleteTemporary(ctx context.Context, fileID, userID string) error {
	tmp, err := s.repo.GetTemporaryByFileID(ctx, fileID)
	if err != nil {
		return err
	}
	if tmp.SessionUserID != userID {
		return ErrNotFound
	}
	return s.repo.DeleteTemporaryByFileID(ctx, fileID)
}

func (s *service) PurgeExpiredTemporaries(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	purged, err := s.repo.DeleteTemporariesOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("Purged expired temporary files",
			zap.Int64("count", purged),
			zap.Time("cutoff", cutoff),
		)
	}
	return purged, nil
}

// Archive writes the current payload to the archive bucket and stamps the
// row with the object name. The write is awaited; the row is only stamped
// after the store confirmed the object.
func (s *service) Archive(ctx context.Context, inquiryID, attachmentID uint64) (*ArchiveResult, error) {
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}

	file, err := s.resolver.Resolve(ctx, inquiryID, attachmentID)
	if err != nil {
		return nil, err
	}

	maxNo, err := s.repo.MaxVersionNo(ctx, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("read version history: %w", err)
	}

	objectName := minio.ObjectName(inquiryID, attachmentID, maxNo, file.FileName)
	if err := s.archive.Put(ctx, objectName, file.Data, file.ContentType); err != nil {
		s.logger.Error("Failed to write archive object",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID),
			zap.String("object_name", objectName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("write archive object: %w", err)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&Attachment{}).
		Where("inquiry_id = ? AND id = ?", inquiryID, attachmentID).
		Updates(map[string]interface{}{
			"archive_object": objectName,
			"archived_at":    now,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("stamp archive object: %w", err)
	}

	url, err := s.archive.PresignedGetURL(ctx, objectName, 24*time.Hour)
	if err != nil {
		s.logger.Warn("Failed to presign archive url",
			zap.String("object_name", objectName),
			zap.Error(err),
		)
		url = ""
	}

	s.logger.Info("Archived attachment",
		zap.Uint64("inquiry_id", inquiryID),
		zap.Uint64("attachment_id", attachmentID),
		zap.String("object_name", objectName),
	)
	return &ArchiveResult{ObjectName: objectName, URL: url, ArchivedAt: now}, nil
}

func (s *service) markCheckedOut(ctx context.Context, inquiryID, attachmentID uint64, userID string) {
	err := s.db.WithContext(ctx).Model(&Attachment{}).
		Where("inquiry_id = ? AND id = ?", inquiryID, attachmentID).
		Updates(map[string]interface{}{
			"checked_out":    true,
			"checked_out_by": userID,
		}).Error
	if err != nil {
		s.logger.Warn("Failed to mirror checkout state",
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
	}

	if s.redisP != nil {
		s.redisP.SetWithDefaultTTL(ctx, checkoutKey(inquiryID, attachmentID), userID, s.checkoutTTL)
	}
}

func (s *service) clearCheckedOut(ctx context.Context, inquiryID, attachmentID uint64) {
	err := s.db.WithContext(ctx).Model(&Attachment{}).
		Where("inquiry_id = ? AND id = ?", inquiryID, attachmentID).
		Updates(map[string]interface{}{
			"checked_out":    false,
			"checked_out_by": "",
		}).Error
	if err != nil {
		s.logger.Warn("Failed to clear mirrored checkout state",
			zap.Uint64("attachment_id", attachmentID),
			zap.Error(err),
		)
	}

	if s.redisP != nil {
		s.redisP.Del(ctx, checkoutKey(inquiryID, attachmentID))
	}
}
