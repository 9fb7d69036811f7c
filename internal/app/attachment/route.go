package attachment

import (
	"github.com/gin-gonic/gin"

	"inquiryfiles/internal/middleware"
)

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	attachments := rg.Group("/inquiries/:inquiry_id/attachments")
	{
		attachments.GET("", handler.List)
		attachments.GET("/:attachment_id", handler.Get)
		attachments.GET("/:attachment_id/versions", handler.GetVersions)
		attachments.GET("/:attachment_id/download", handler.Download)
		attachments.GET("/:attachment_id/download/:version_no", handler.DownloadVersion)
		attachments.GET("/:attachment_id/preview", handler.Preview)

		attachments.PATCH("/:attachment_id/comment", middleware.RequireUser(), handler.UpdateComment)
		attachments.POST("/:attachment_id/checkout", middleware.RequireUser(), handler.CheckOut)
		attachments.POST("/:attachment_id/checkin", middleware.RequireUser(), handler.CheckIn)
		attachments.POST("/:attachment_id/undocheckout", middleware.RequireUser(), handler.UndoCheckout)
		attachments.DELETE("/:attachment_id/versions/:version_no", middleware.RequireUser(), handler.DeleteVersion)
		attachments.POST("/:attachment_id/archive", middleware.RequireUser(), handler.Archive)
		attachments.POST("/commit", middleware.RequireUser(), handler.Commit)
	}

	temporary := rg.Group("/attachments/temporary")
	{
		temporary.GET("", middleware.RequireUser(), handler.ListTemporary)
		temporary.DELETE("/:file_id", middleware.RequireUser(), handler.DeleteTemporary)
	}
}
