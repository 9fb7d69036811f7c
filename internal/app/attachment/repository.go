package attachment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested attachment, version or
// temporary row does not exist.
var ErrNotFound = errors.New("attachment not found")

type Repository interface {
	Create(ctx context.Context, att *Attachment) error
	GetByID(ctx context.Context, inquiryID, attachmentID uint64) (*Attachment, error)
	ListByInquiry(ctx context.Context, inquiryID uint64) ([]*Attachment, error)
	UpdateComment(ctx context.Context, inquiryID, attachmentID uint64, comment string) error

	CreateVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, attachmentID uint64, versionNo int) (*Version, error)
	ListVersions(ctx context.Context, attachmentID uint64) ([]*Version, error)
	MaxVersionNo(ctx context.Context, attachmentID uint64) (int, error)
	DeleteVersion(ctx context.Context, attachmentID uint64, versionNo int) (int64, error)

	CreateTemporary(ctx context.Context, tmp *Temporary) error
	GetTemporaryByFileID(ctx context.Context, fileID string) (*Temporary, error)
	ListTemporariesByUser(ctx context.Context, userID string) ([]*Temporary, error)
	DeleteTemporaryByFileID(ctx context.Context, fileID string) error
	DeleteTemporariesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, att *Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *repository) GetByID(ctx context.Context, inquiryID, attachmentID uint64) (*Attachment, error) {
	var att Attachment
	err := r.db.WithContext(ctx).
		Where("inquiry_id = ? AND id = ? AND deleted = ?", inquiryID, attachmentID, false).
		First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *repository) ListByInquiry(ctx context.Context, inquiryID uint64) ([]*Attachment, error) {
	var atts []*Attachment
	err := r.db.WithContext(ctx).
		Where("inquiry_id = ? AND deleted = ?", inquiryID, false).
		Order("created_at ASC").
		Find(&atts).Error
	if err != nil {
		return nil, err
	}
	return atts, nil
}

func (r *repository) UpdateComment(ctx context.Context, inquiryID, attachmentID uint64, comment string) error {
	res := r.db.WithContext(ctx).Model(&Attachment{}).
		Where("inquiry_id = ? AND id = ? AND deleted = ?", inquiryID, attachmentID, false).
		Update("comment", comment)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateVersion(ctx context.Context, v *Version) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *repository) GetVersion(ctx context.Context, attachmentID uint64, versionNo int) (*Version, error) {
	var v Version
	err := r.db.WithContext(ctx).
		Where("attachment_id = ? AND version_no = ?", attachmentID, versionNo).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListVersions(ctx context.Context, attachmentID uint64) ([]*Version, error) {
	var versions []*Version
	err := r.db.WithContext(ctx).
		Where("attachment_id = ?", attachmentID).
		Order("version_no ASC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *repository) MaxVersionNo(ctx context.Context, attachmentID uint64) (int, error) {
	var maxNo int
	err := r.db.WithContext(ctx).Model(&Version{}).
		Where("attachment_id = ?", attachmentID).
		Select("COALESCE(MAX(version_no), 0)").
		Scan(&maxNo).Error
	if err != nil {
		return 0, err
	}
	return maxNo, nil
}

func (r *repository) DeleteVersion(ctx context.Context, attachmentID uint64, versionNo int) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("attachment_id = ? AND version_no = ?", attachmentID, versionNo).
		Delete(&Version{})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateTemporary(ctx context.Context, tmp *Temporary) error {
	return r.db.WithContext(ctx).Create(tmp).Error
}

func (r *repository) GetTemporaryByFileID(ctx context.Context, fileID string) (*Temporary, error) {
	var tmp Temporary
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&tmp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmp, nil
}

func (r *repository) ListTemporariesByUser(ctx context.Context, userID string) ([]*Temporary, error) {
	var tmps []*Temporary
	err := r.db.WithContext(ctx).
		Where("session_user_id = ?", userID).
		Order("created_at ASC").
		Find(&tmps).Error
	if err != nil {
		return nil, err
	}
	return tmps, nil
}

func (r *repository) DeleteTemporaryByFileID(ctx context.Context, fileID string) error {
	res := r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&Temporary{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteTemporariesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Temporary{})
	return res.RowsAffected, res.Error
}
