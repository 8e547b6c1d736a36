package handler

import (
	"Chirper/internal/api/dto"
	"Chirper/internal/pkg/response"
	"Chirper/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type TweetHandler struct {
	tweetService service.TweetService
}

func NewTweetHandler(s service.TweetService) *TweetHandler {
	return &TweetHandler{
		tweetService: s,
	}
}

// Generate 手动触发生成并发布，同步返回本次记录
func (h *TweetHandler) Generate(c *gin.Context) {
	var req dto.GenerateTweetDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, service.ErrParamInvalid)
			return
		}
	}

	result, err := h.tweetService.GenerateAndPost(c.Request.Context(), req.Topic)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetHistory 分页查询历史记录，可按状态过滤
func (h *TweetHandler) GetHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := c.Query("status")

	history, err := h.tweetService.GetHistory(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, history)
}

// GetMetrics 刷新并返回单条推文的互动指标
func (h *TweetHandler) GetMetrics(c *gin.Context) {
	tweetID := c.Param("tweet_id")
	if tweetID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	metrics, err := h.tweetService.RefreshMetrics(c.Request.Context(), tweetID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, metrics)
}

// Delete 软删除本地记录，不撤回已发布的推文
func (h *TweetHandler) Delete(c *gin.Context) {
	tweetID := c.Param("tweet_id")
	if tweetID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := h.tweetService.SoftDelete(c.Request.Context(), tweetID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, nil)
}
