package api

import "Chirper/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	TweetHandler  *handler.TweetHandler
	HealthHandler *handler.HealthHandler
}
