package llm

import (
	"Chirper/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

var tweetPrompts = []string{
	"Write an engaging tweet about %s. Keep it under 240 characters to leave room for hashtags. Make it informative, thought-provoking, or inspiring. No hashtags in the main content.",
	"Create a fascinating fact tweet about %s. Under 240 characters. Should be surprising, educational, or mind-blowing. No hashtags in the content.",
	"Write a motivational tweet related to %s. Under 240 characters. Should inspire or encourage your audience. No hashtags in the main text.",
	"Share an interesting observation about %s. Under 240 characters. Make it relatable and engaging. No hashtags in the content.",
}

const hashtagPrompt = `Based on this tweet content: "%s" and topic: "%s", suggest exactly 3 relevant, trending hashtags. Return only the hashtags separated by spaces, with # symbols. Focus on popular, searchable tags.`

// 标签不可用时的按主题兜底集合
var fallbackHashtags = map[string][]string{
	"technology": {"#Tech", "#Innovation", "#AI"},
	"science":    {"#Science", "#Research", "#Discovery"},
	"business":   {"#Business", "#Startup", "#Entrepreneur"},
}

var defaultHashtags = []string{"#Daily", "#Inspiration", "#Knowledge"}

var (
	hashtagToken = regexp.MustCompile(`#\w+`)
	tagJunk      = regexp.MustCompile(`[^\w#]`)
)

// FallbackHashtags 返回主题对应的兜底标签，未知主题走通用集合
func FallbackHashtags(topic string) []string {
	if tags, ok := fallbackHashtags[topic]; ok {
		return append([]string(nil), tags...)
	}
	return append([]string(nil), defaultHashtags...)
}

// GenerateTweet 随机选一条 prompt 模板生成正文，清洗后截断到内容预算
func (s *Generator) GenerateTweet(ctx context.Context, topic string) (string, error) {
	prompt := fmt.Sprintf(tweetPrompts[rand.Intn(len(tweetPrompts))], topic)

	resp, err := s.fetch(ctx, prompt, 0.9)
	if err != nil {
		log.ErrorContext(ctx, "AI大模型请求失败", "err", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}

	content := CleanContent(resp.Choices[0].Content)
	if content == "" {
		return "", errors.New("llm returned empty content")
	}

	log.InfoContext(ctx, "推文正文生成成功", "content", content)
	return content, nil
}

// GenerateHashtags 基于正文和主题生成至多 3 个标签，返回空集或报错由调用方兜底
func (s *Generator) GenerateHashtags(ctx context.Context, content, topic string) ([]string, error) {
	prompt := fmt.Sprintf(hashtagPrompt, content, topic)

	resp, err := s.fetch(ctx, prompt, 0.7)
	if err != nil {
		log.ErrorContext(ctx, "AI大模型请求失败", "err", err)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	tags := ParseHashtags(resp.Choices[0].Content)
	log.InfoContext(ctx, "推文标签生成成功", "hashtags", strings.Join(tags, " "))
	return tags, nil
}

// CleanContent 去掉包裹引号和正文里混入的标签，超出内容预算时截断并加省略号
func CleanContent(raw string) string {
	content := strings.TrimSpace(raw)
	content = strings.Trim(content, `"'`)
	content = hashtagToken.ReplaceAllString(content, "")
	content = strings.TrimSpace(content)

	runes := []rune(content)
	if len(runes) > consts.TweetContentLen {
		content = string(runes[:consts.TweetContentLen-3]) + "..."
	}
	return content
}

// ParseHashtags 从模型返回文本中提取 # 开头的 token，最多保留 3 个
func ParseHashtags(raw string) []string {
	var tags []string
	for _, field := range strings.Fields(raw) {
		if !strings.HasPrefix(field, "#") {
			continue
		}
		tag := tagJunk.ReplaceAllString(field, "")
		if tag == "#" || tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == consts.TweetMaxHashtags {
			break
		}
	}
	return tags
}

func (s *Generator) fetch(ctx context.Context, prompt string, temp float64) (*llms.ContentResponse, error) {
	if err := TextSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer TextSem.Release(1)

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}
	log.InfoContext(ctx, "正在请求AI大模型")
	return s.model.GenerateContent(ctx, messages,
		llms.WithModel(s.textModel),
		llms.WithTemperature(temp),
	)
}
