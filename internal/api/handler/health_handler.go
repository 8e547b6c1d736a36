package handler

import (
	"Chirper/internal/pkg/response"
	"Chirper/internal/service"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthService service.HealthService
}

func NewHealthHandler(s service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: s,
	}
}

// Check 汇总存储、发布端与模型配置的健康状态
func (h *HealthHandler) Check(c *gin.Context) {
	response.Success(c, h.healthService.Check(c.Request.Context()))
}
