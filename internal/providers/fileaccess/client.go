package fileaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileNameHeader carries the original document name on every response that
// returns file bytes. Its absence is a protocol violation, never defaulted.
const FileNameHeader = "x-http-file-name"

var (
	ErrRemoteUnavailable = errors.New("fileaccess: remote service unavailable")
	ErrInvalidResponse   = errors.New("fileaccess: malformed response from remote service")
	ErrMissingFileName   = errors.New("fileaccess: response missing " + FileNameHeader + " header")
)

// Client wraps the external document service. It owns checkout/undo-checkout
// of documents for editing, file retrieval, and version deletion for
// attachments whose physical payload lives remotely.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Config struct {
	// BaseURL is the service address (configuration key FileAccessUrl).
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fileaccess: base URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// File is a payload fetched from the remote service together with the
// document name the service holds for it.
type File struct {
	Data     []byte
	FileName string
}

type operationEnvelope struct {
	IsOperationComplete bool `json:"IsOperationComplete"`
}

type versionRequest struct {
	InquiryID    uint64 `json:"InquiryId"`
	AttachmentID uint64 `json:"AttachmentId"`
	VersionNo    int    `json:"VersionNo"`
}

// Checkout locks the document for editing by the calling user.
func (c *Client) Checkout(ctx context.Context, inquiryID, attachmentID uint64) (Outcome, error) {
	url := fmt.Sprintf("%s/checkout/%d/%d", c.baseURL, inquiryID, attachmentID)
	return c.operation(ctx, http.MethodGet, url, nil)
}

// UndoCheckout releases the edit lock without submitting new content.
func (c *Client) UndoCheckout(ctx context.Context, inquiryID, attachmentID uint64) (Outcome, error) {
	url := fmt.Sprintf("%s/undocheckout/%d/%d", c.baseURL, inquiryID, attachmentID)
	return c.operation(ctx, http.MethodGet, url, nil)
}

// DeleteFileByVersion removes one stored version of the document.
func (c *Client) DeleteFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (Outcome, error) {
	body, err := json.Marshal(versionRequest{
		InquiryID:    inquiryID,
		AttachmentID: attachmentID,
		VersionNo:    versionNo,
	})
	if err != nil {
		return OutcomeTransportFailure, fmt.Errorf("fileaccess: encode delete request: %w", err)
	}
	return c.operation(ctx, http.MethodPost, c.baseURL+"/DeleteFileByVersion", body)
}

// GetFile fetches the current document payload.
func (c *Client) GetFile(ctx context.Context, inquiryID, attachmentID uint64) (*File, error) {
	url := fmt.Sprintf("%s/getfile/%d/%d", c.baseURL, inquiryID, attachmentID)
	return c.fetch(ctx, http.MethodGet, url, nil)
}

// GetFileByVersion fetches a specific stored version of the document.
func (c *Client) GetFileByVersion(ctx context.Context, inquiryID, attachmentID uint64, versionNo int) (*File, error) {
	body, err := json.Marshal(versionRequest{
		InquiryID:    inquiryID,
		AttachmentID: attachmentID,
		VersionNo:    versionNo,
	})
	if err != nil {
		return nil, fmt.Errorf("fileaccess: encode version request: %w", err)
	}
	return c.fetch(ctx, http.MethodPost, c.baseURL+"/GetFileByVersion", body)
}

// operation issues a call whose result is the {IsOperationComplete} envelope
// and classifies the dual-flag response into an Outcome.
func (c *Client) operation(ctx context.Context, method, url string, body []byte) (Outcome, error) {
	resp, err := c.do(ctx, method, url, body)
	if err != nil {
		return OutcomeTransportFailure, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OutcomeTransportFailure, fmt.Errorf("%w: %s returned status %d", ErrRemoteUnavailable, url, resp.StatusCode)
	}

	var envelope operationEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return OutcomeTransportFailure, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if !envelope.IsOperationComplete {
		c.logger.Warn("Remote operation reported incomplete",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return OutcomeIncomplete, nil
	}

	return OutcomeSuccess, nil
}

// fetch issues a call that returns file bytes plus the filename header.
func (c *Client) fetch(ctx context.Context, method, url string, body []byte) (*File, error) {
	resp, err := c.do(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRemoteUnavailable, url, resp.StatusCode)
	}

	fileName := resp.Header.Get(FileNameHeader)
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrMissingFileName
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRemoteUnavailable, err)
	}

	c.logger.Debug("Fetched file from remote service",
		zap.String("url", url),
		zap.String("file_name", fileName),
		zap.Int("size", len(data)),
	)

	return &File{Data: data, FileName: fileName}, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Remote call failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return resp, nil
}
