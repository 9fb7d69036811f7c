package inquiry

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("inquiry not found")

type Repository interface {
	GetAll(ctx context.Context) ([]*Inquiry, error)
	GetByID(ctx context.Context, id uint64) (*Inquiry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAll(ctx context.Context) ([]*Inquiry, error) {
	var inquiries []*Inquiry
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&inquiries).Error
	return inquiries, err
}

func (r *repository) GetByID(ctx context.Context, id uint64) (*Inquiry, error) {
	var inq Inquiry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inq, nil
}
