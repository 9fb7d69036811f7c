package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"inquiryfiles/internal/providers/fileaccess"
)

func TestResolveInlineFastPath(t *testing.T) {
	remote := &fakeRemote{}
	db := newTestDB(t)
	repo := NewRepository(db)
	resolver := NewResolver(repo, remote, zap.NewNop())

	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "inline.txt",
		ContentType:  "text/plain",
		DocumentData: []byte("inline payload"),
	})

	file, err := resolver.Resolve(context.Background(), 10, att.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(file.Data, []byte("inline payload")) {
		t.Fatalf("unexpected payload %q", file.Data)
	}
	if file.FileName != "inline.txt" || file.ContentType != "text/plain" {
		t.Fatalf("unexpected metadata %s %s", file.FileName, file.ContentType)
	}
	if remote.getFileCalls != 0 {
		t.Fatalf("inline rows must resolve without any remote call, got %d", remote.getFileCalls)
	}
}

func TestResolveExternalURL(t *testing.T) {
	remote := &fakeRemote{file: &fileaccess.File{Data: []byte("remote payload"), FileName: "remote.pdf"}}
	db := newTestDB(t)
	repo := NewRepository(db)
	resolver := NewResolver(repo, remote, zap.NewNop())

	att := seedAttachment(t, db, &Attachment{
		InquiryID:    10,
		DocumentName: "stored-name.pdf",
		ContentType:  "application/pdf",
		URL:          "https://files.internal/docs/42",
	})

	file, err := resolver.Resolve(context.Background(), 10, att.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote.getFileCalls != 1 {
		t.Fatalf("expected one remote fetch, got %d", remote.getFileCalls)
	}
	if !bytes.Equal(file.Data, []byte("remote payload")) {
		t.Fatalf("unexpected payload %q", file.Data)
	}
	if file.FileName != "remote.pdf" {
		t.Fatalf("remote fetches must use the transmitted file name, got %s", file.FileName)
	}
	if file.ContentType != "application/pdf" {
		t.Fatalf("content type comes from the metadata row, got %s", file.ContentType)
	}
}

func TestResolveCorruptRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	resolver := NewResolver(repo, &fakeRemote{}, zap.NewNop())

	att := seedAttachment(t, db, &Attachment{InquiryID: 10, DocumentName: "ghost.txt"})

	_, err := resolver.Resolve(context.Background(), 10, att.ID)
	if !errors.Is(err, ErrPayloadMissing) {
		t.Fatalf("expected ErrPayloadMissing, got %v", err)
	}
}

func TestResolveUnknownAttachment(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(NewRepository(db), &fakeRemote{}, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), 10, 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvePropagatesRemoteErrors(t *testing.T) {
	remote := &fakeRemote{fileErr: fmt.Errorf("get file: %w", fileaccess.ErrMissingFileName)}
	db := newTestDB(t)
	resolver := NewResolver(NewRepository(db), remote, zap.NewNop())

	seedAttachment(t, db, &Attachment{ID: 7, InquiryID: 10, DocumentName: "x.pdf", URL: "https://files.internal/7"})

	_, err := resolver.Resolve(context.Background(), 10, 7)
	if !errors.Is(err, fileaccess.ErrMissingFileName) {
		t.Fatalf("expected ErrMissingFileName to propagate, got %v", err)
	}
}
