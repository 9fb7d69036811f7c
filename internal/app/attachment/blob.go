package attachment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"inquiryfiles/internal/providers/fileaccess"
)

// ErrPayloadMissing is returned for a metadata row that carries neither an
// inline payload nor an external url. Such rows are corrupt.
var ErrPayloadMissing = errors.New("attachment has no inline payload and no external url")

// RemoteFileFetcher is the slice of the document service client the resolver
// needs.
type RemoteFileFetcher interface {
	GetFile(ctx context.Context, inquiryID, attachmentID uint64) (*fileaccess.File, error)
}

// Resolver turns an attachment metadata row into its binary payload. Rows
// with inline data are served without any remote call; rows that only carry
// an external url are fetched from the document service.
type Resolver struct {
	repo   Repository
	remote RemoteFileFetcher
	logger *zap.Logger
}

func NewResolver(repo Repository, remote RemoteFileFetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{repo: repo, remote: remote, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, inquiryID, attachmentID uint64) (*ResolvedFile, error) {
	att, err := r.repo.GetByID(ctx, inquiryID, attachmentID)
	if err != nil {
		return nil, err
	}

	if len(att.DocumentData) > 0 {
		return &ResolvedFile{
			Data:        att.DocumentData,
			FileName:    att.DocumentName,
			ContentType: att.ContentType,
		}, nil
	}

	if att.URL == "" {
		r.logger.Error("Attachment row has neither payload nor url",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Uint64("attachment_id", attachmentID))
		return nil, ErrPayloadMissing
	}

	file, err := r.remote.GetFile(ctx, inquiryID, attachmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch external payload: %w", err)
	}

	return &ResolvedFile{
		Data:        file.Data,
		FileName:    file.FileName,
		ContentType: att.ContentType,
	}, nil
}
