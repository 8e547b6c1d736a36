package llm

import (
	"Chirper/internal/api/config"
	log "log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator 基于 OpenAI 兼容接口的推文内容生成器
type Generator struct {
	model     llms.Model
	textModel string
}

func NewGenerator(cfg config.LLMConfig) (*Generator, error) {
	client, err := openai.New(
		openai.WithModel(cfg.TextModel),
		openai.WithToken(cfg.ApiKey),
		openai.WithBaseURL(cfg.URL),
	)
	if err != nil {
		log.Error("AI大模型初始化失败", "err", err)
		return nil, err
	}

	return &Generator{
		model:     client,
		textModel: cfg.TextModel,
	}, nil
}
