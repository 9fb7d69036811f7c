package seeder

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inquiryfiles/internal/app/inquiry"
)

type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedInquiries(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedInquiries() error {
	var count int64
	s.db.Model(&inquiry.Inquiry{}).Count(&count)
	if count > 0 {
		s.logger.Info("Inquiries already exist, skipping seed")
		return nil
	}

	inquiries := []inquiry.Inquiry{
		{Reference: "INQ-2024-0001", Subject: "Credit facility extension", Status: "open"},
		{Reference: "INQ-2024-0002", Subject: "Collateral revaluation", Status: "open"},
		{Reference: "INQ-2024-0003", Subject: "Account closure request", Status: "closed"},
		{Reference: "INQ-2024-0004", Subject: "Regulatory disclosure follow-up", Status: "open"},
		{Reference: "INQ-2024-0005", Subject: "Payment dispute", Status: "pending"},
	}

	if err := s.db.Create(&inquiries).Error; err != nil {
		return err
	}

	s.logger.Info("Seeded inquiries", zap.Int("count", len(inquiries)))
	return nil
}
