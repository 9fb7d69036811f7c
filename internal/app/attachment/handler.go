package attachment

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inquiryfiles/internal/middleware"
	"inquiryfiles/internal/preview"
	"inquiryfiles/internal/providers/fileaccess"
)

type Handler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	GetVersions(c *gin.Context)
	UpdateComment(c *gin.Context)
	Download(c *gin.Context)
	DownloadVersion(c *gin.Context)
	Preview(c *gin.Context)
	CheckOut(c *gin.Context)
	CheckIn(c *gin.Context)
	UndoCheckout(c *gin.Context)
	DeleteVersion(c *gin.Context)
	Archive(c *gin.Context)
	Commit(c *gin.Context)
	ListTemporary(c *gin.Context)
	DeleteTemporary(c *gin.Context)
}

type handler struct {
	service Service
	limits  IngestLimits
	logger  *zap.Logger
}

func NewHandler(service Service, limits IngestLimits, logger *zap.Logger) Handler {
	return &handler{
		service: service,
		limits:  limits,
		logger:  logger,
	}
}

// @Summary List inquiry attachments
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments [get]
func (h *handler) List(c *gin.Context) {
	inquiryID, ok := h.parseID(c, "inquiry_id")
	if !ok {
		return
	}

	attachments, err := h.service.List(c.Request.Context(), inquiryID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Attachments: attachments})
}

// @Summary Get attachment metadata
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {object} Attachment
// @Failure 404 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id} [get]
func (h *handler) Get(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	att, err := h.service.Get(c.Request.Context(), inquiryID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, att)
}

// @Summary List attachment versions
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {object} VersionListResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/versions [get]
func (h *handler) GetVersions(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	versions, err := h.service.Versions(c.Request.Context(), inquiryID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VersionListResponse{Versions: versions})
}

// @Summary Update attachment comment
// @Tags Attachments
// @Accept json
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Param request body UpdateCommentRequest true "New comment"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/comment [patch]
func (h *handler) UpdateComment(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.UpdateComment(c.Request.Context(), inquiryID, attachmentID, req.Comment); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "updated"})
}

// @Summary Download attachment payload
// @Tags Attachments
// @Produce octet-stream
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/download [get]
func (h *handler) Download(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	file, err := h.service.Download(c.Request.Context(), inquiryID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeFile(c, file)
}

// @Summary Download a specific attachment version
// @Tags Attachments
// @Produce octet-stream
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Param version_no path int true "Version number"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/download/{version_no} [get]
func (h *handler) DownloadVersion(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	versionNo, ok := h.parseVersionNo(c)
	if !ok {
		return
	}

	file, err := h.service.DownloadVersion(c.Request.Context(), inquiryID, attachmentID, versionNo)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeFile(c, file)
}

// @Summary Preview attachment in the browser
// @Description Returns an HTML fragment for previewable types, the raw file otherwise
// @Tags Attachments
// @Produce html
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {string} string
// @Failure 404 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/preview [get]
func (h *handler) Preview(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	file, err := h.service.Download(c.Request.Context(), inquiryID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rendered := preview.Render(filepath.Ext(file.FileName), file.Data)
	if rendered.IsDownload {
		h.writeFile(c, file)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rendered.HTML))
}

// @Summary Check out attachment for editing
// @Description Acquires the edit lock on the document service and returns the current payload
// @Tags Attachments
// @Produce octet-stream
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {file} binary
// @Failure 410 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/checkout [post]
func (h *handler) CheckOut(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	file, err := h.service.CheckOut(c.Request.Context(), inquiryID, attachmentID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeFile(c, file)
}

// @Summary Check in edited attachment
// @Description Persists the uploaded content as the new current version and releases the lock
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Param file formData file true "Edited file content"
// @Success 200 {object} StatusResponse
// @Failure 410 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/checkin [post]
func (h *handler) CheckIn(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	parts, err := ReadParts(c.Request, IngestLimits{MaxFileSize: h.limits.MaxFileSize, MaxFiles: 1})
	if err != nil {
		h.respondError(c, err)
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	if err := h.service.CheckIn(c.Request.Context(), inquiryID, attachmentID, userID, parts[0]); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "checked in"})
}

// @Summary Undo attachment checkout
// @Description Releases the edit lock without saving changes
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {object} StatusResponse
// @Failure 410 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/undocheckout [post]
func (h *handler) UndoCheckout(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	if err := h.service.UndoCheckout(c.Request.Context(), inquiryID, attachmentID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "checkout released"})
}

// @Summary Delete attachment version
// @Description Deletes one version from history, removing the remote copy first when one exists
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Param version_no path int true "Version number"
// @Param remote_version_id query int false "Document service version ID, 0 for local only"
// @Success 200 {object} StatusResponse
// @Failure 410 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/versions/{version_no} [delete]
func (h *handler) DeleteVersion(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}
	versionNo, ok := h.parseVersionNo(c)
	if !ok {
		return
	}

	remoteVersionID := int64(-1)
	if raw := c.Query("remote_version_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid remote_version_id"})
			return
		}
		remoteVersionID = parsed
	}

	if err := h.service.DeleteVersion(c.Request.Context(), inquiryID, attachmentID, versionNo, remoteVersionID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "version deleted"})
}

// @Summary Archive attachment
// @Description Copies the current payload into the archive bucket
// @Tags Attachments
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param attachment_id path int true "Attachment ID"
// @Success 200 {object} ArchiveResult
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/{attachment_id}/archive [post]
func (h *handler) Archive(c *gin.Context) {
	inquiryID, attachmentID, ok := h.parseIDs(c)
	if !ok {
		return
	}

	result, err := h.service.Archive(c.Request.Context(), inquiryID, attachmentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Commit temporary files to an inquiry
// @Tags Attachments
// @Accept json
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param request body CommitRequest true "File IDs to commit"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/commit [post]
func (h *handler) Commit(c *gin.Context) {
	inquiryID, ok := h.parseID(c, "inquiry_id")
	if !ok {
		return
	}

	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if len(req.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file IDs provided"})
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	committed, err := h.service.CommitTemporaries(c.Request.Context(), inquiryID, req.FileIDs, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Attachments: committed})
}

// @Summary List own temporary files
// @Tags Attachments
// @Produce json
// @Success 200 {object} TemporaryListResponse
// @Router /api/attachments/temporary [get]
func (h *handler) ListTemporary(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	tmps, err := h.service.ListTemporaries(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TemporaryListResponse{Temporary: tmps})
}

// @Summary Delete own temporary file
// @Tags Attachments
// @Produce json
// @Param file_id path string true "File ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/attachments/temporary/{file_id} [delete]
func (h *handler) DeleteTemporary(c *gin.Context) {
	fileID := c.Param("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file_id is required"})
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	if err := h.service.DeleteTemporary(c.Request.Context(), fileID, userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{Status: "deleted"})
}

func (h *handler) parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *handler) parseIDs(c *gin.Context) (uint64, uint64, bool) {
	inquiryID, ok := h.parseID(c, "inquiry_id")
	if !ok {
		return 0, 0, false
	}
	attachmentID, ok := h.parseID(c, "attachment_id")
	if !ok {
		return 0, 0, false
	}
	return inquiryID, attachmentID, true
}

func (h *handler) parseVersionNo(c *gin.Context) (int, bool) {
	versionNo, err := strconv.Atoi(c.Param("version_no"))
	if err != nil || versionNo < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid version number"})
		return 0, false
	}
	return versionNo, true
}

func (h *handler) writeFile(c *gin.Context, file *ResolvedFile) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("x-filename", file.FileName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, contentType, file.Data)
}

func (h *handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "attachment not found"})
	case errors.Is(err, ErrInvalidVersion), errors.Is(err, ErrEmptyPayload),
		errors.Is(err, ErrNoFiles), errors.Is(err, ErrTooManyFiles), errors.Is(err, ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotMultipart):
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "request body must be multipart/form-data"})
	case errors.Is(err, ErrRemoteIncomplete):
		c.JSON(http.StatusGone, ErrorResponse{Error: "checkout or version no longer exists on the document service"})
	case errors.Is(err, fileaccess.ErrRemoteUnavailable),
		errors.Is(err, fileaccess.ErrInvalidResponse),
		errors.Is(err, fileaccess.ErrMissingFileName):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "document service request failed"})
	case errors.Is(err, ErrArchiveUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "archive store is not configured"})
	default:
		h.logger.Error("Attachment request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
