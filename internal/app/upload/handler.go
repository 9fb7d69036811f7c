package upload

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inquiryfiles/internal/app/attachment"
	"inquiryfiles/internal/middleware"
)

type Handler interface {
	Upload(c *gin.Context)
	UploadClosing(c *gin.Context)
	UploadRegulatory(c *gin.Context)
	UploadTemporary(c *gin.Context)
}

type handler struct {
	attSvc attachment.Service
	limits attachment.IngestLimits
	logger *zap.Logger
}

func NewHandler(attSvc attachment.Service, limits attachment.IngestLimits, logger *zap.Logger) Handler {
	return &handler{
		attSvc: attSvc,
		limits: limits,
		logger: logger,
	}
}

// @Summary Upload attachments to an inquiry
// @Description Stores every file of the multipart body; files that fail to persist are skipped
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param files formData file true "Files to upload"
// @Success 200 {object} attachment.ListResponse
// @Failure 400 {object} attachment.ErrorResponse
// @Failure 415 {object} attachment.ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments [post]
func (h *handler) Upload(c *gin.Context) {
	h.save(c, attachment.SaveOptions{})
}

// @Summary Upload closing documents to an inquiry
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param files formData file true "Files to upload"
// @Success 200 {object} attachment.ListResponse
// @Failure 415 {object} attachment.ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/closing [post]
func (h *handler) UploadClosing(c *gin.Context) {
	h.save(c, attachment.SaveOptions{Closing: true})
}

// @Summary Upload regulatory documents to an inquiry
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Param files formData file true "Files to upload"
// @Success 200 {object} attachment.ListResponse
// @Failure 415 {object} attachment.ErrorResponse
// @Router /api/inquiries/{inquiry_id}/attachments/regulatory [post]
func (h *handler) UploadRegulatory(c *gin.Context) {
	h.save(c, attachment.SaveOptions{Regulatory: true})
}

// @Summary Upload temporary files
// @Description Stores files without linking them to an inquiry, for a later commit
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to upload"
// @Success 200 {object} attachment.TemporaryListResponse
// @Failure 415 {object} attachment.ErrorResponse
// @Router /api/attachments/temporary [post]
func (h *handler) UploadTemporary(c *gin.Context) {
	parts, err := attachment.ReadParts(c.Request, h.limits)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	opts := attachment.SaveOptions{
		UserID:         c.GetString(middleware.UserIDKey),
		DelegateUserID: c.GetString(middleware.DelegateUserIDKey),
	}
	saved, err := h.attSvc.SaveTemporaries(c.Request.Context(), parts, opts)
	if err != nil {
		h.logger.Error("Temporary upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, attachment.ErrorResponse{Error: "failed to store files"})
		return
	}

	c.JSON(http.StatusOK, attachment.TemporaryListResponse{Temporary: saved})
}

func (h *handler) save(c *gin.Context, opts attachment.SaveOptions) {
	inquiryID, err := strconv.ParseUint(c.Param("inquiry_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, attachment.ErrorResponse{Error: "invalid inquiry_id"})
		return
	}

	parts, err := attachment.ReadParts(c.Request, h.limits)
	if err != nil {
		h.respondIngestError(c, err)
		return
	}

	opts.UserID = c.GetString(middleware.UserIDKey)
	opts.DelegateUserID = c.GetString(middleware.DelegateUserIDKey)

	saved, err := h.attSvc.SaveUpload(c.Request.Context(), inquiryID, parts, opts)
	if err != nil {
		h.logger.Error("Upload failed",
			zap.Uint64("inquiry_id", inquiryID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, attachment.ErrorResponse{Error: "failed to store files"})
		return
	}

	c.JSON(http.StatusOK, attachment.ListResponse{Attachments: saved})
}

func (h *handler) respondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attachment.ErrNotMultipart):
		c.JSON(http.StatusUnsupportedMediaType, attachment.ErrorResponse{Error: "request body must be multipart/form-data"})
	case errors.Is(err, attachment.ErrNoFiles),
		errors.Is(err, attachment.ErrTooManyFiles),
		errors.Is(err, attachment.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, attachment.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("Failed to read multipart body", zap.Error(err))
		c.JSON(http.StatusBadRequest, attachment.ErrorResponse{Error: "failed to read multipart body"})
	}
}
