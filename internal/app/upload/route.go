package upload

import (
	"github.com/gin-gonic/gin"

	"inquiryfiles/internal/middleware"
)

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	uploads := rg.Group("/inquiries/:inquiry_id/attachments")
	{
		uploads.POST("", middleware.RequireUser(), handler.Upload)
		uploads.POST("/closing", middleware.RequireUser(), handler.UploadClosing)
		uploads.POST("/regulatory", middleware.RequireUser(), handler.UploadRegulatory)
	}

	rg.POST("/attachments/temporary", middleware.RequireUser(), handler.UploadTemporary)
}
