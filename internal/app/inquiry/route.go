package inquiry

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	rg.GET("/inquiries", handler.GetAll)
	rg.GET("/inquiries/:inquiry_id", handler.GetByID)
}
