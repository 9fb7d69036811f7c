package inquiry

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	GetAll(c *gin.Context)
	GetByID(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary List inquiries
// @Tags Inquiry
// @Produce json
// @Success 200 {object} ListResponse
// @Router /api/inquiries [get]
func (h *handler) GetAll(c *gin.Context) {
	inquiries, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch inquiries"})
		return
	}
	c.JSON(http.StatusOK, ListResponse{Inquiries: inquiries})
}

// @Summary Get inquiry by ID
// @Tags Inquiry
// @Produce json
// @Param inquiry_id path int true "Inquiry ID"
// @Success 200 {object} Inquiry
// @Failure 404 {object} ErrorResponse
// @Router /api/inquiries/{inquiry_id} [get]
func (h *handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("inquiry_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid inquiry_id"})
		return
	}

	inq, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "inquiry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch inquiry"})
		return
	}
	c.JSON(http.StatusOK, inq)
}
