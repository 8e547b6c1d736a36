package service

import (
	"Chirper/internal/api/dto"
	"Chirper/internal/pkg/consts"
	"Chirper/internal/pkg/llm"
	"Chirper/internal/pkg/mongo"
	"Chirper/internal/pkg/ratelimit"
	"Chirper/internal/pkg/twitter"
	"context"
	"errors"
	log "log/slog"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

// 无指定主题时的随机选题池
var topics = []string{
	"artificial intelligence",
	"machine learning",
	"web development",
	"cybersecurity",
	"blockchain",
	"cloud computing",
	"mobile development",
	"data science",
	"software engineering",
	"tech startups",
}

// ContentGenerator 内容生成能力，由 llm 包实现
type ContentGenerator interface {
	GenerateTweet(ctx context.Context, topic string) (string, error)
	GenerateHashtags(ctx context.Context, content, topic string) ([]string, error)
}

// Publisher 发布能力，由 twitter 包实现
type Publisher interface {
	PostTweet(ctx context.Context, text string) (string, error)
	GetMetrics(ctx context.Context, tweetID string) (*twitter.Metrics, error)
	ValidateCredentials(ctx context.Context) bool
}

// RunOutcome 定时触发场景下的结构化运行结果，失败不抛给调度器
type RunOutcome struct {
	Success bool   `json:"success"`
	Topic   string `json:"topic,omitempty"`
	LogID   string `json:"log_id,omitempty"`
	TweetID string `json:"tweet_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type TweetService interface {
	GenerateAndPost(ctx context.Context, topic string) (*dto.TweetLogDTO, error)
	RunScheduled(ctx context.Context) *RunOutcome
	GetHistory(ctx context.Context, status string, page, pageSize int) (*dto.HistoryDTO, error)
	RefreshMetrics(ctx context.Context, tweetID string) (*dto.TweetMetricsDTO, error)
	SoftDelete(ctx context.Context, tweetID string) error
}

type tweetServiceImpl struct {
	tweetLogRepo mongo.TweetLogRepo
	generator    ContentGenerator
	publisher    Publisher
	guard        RunGuard
	tweetLimiter *ratelimit.Limiter
	genLimiter   *ratelimit.Limiter
}

func NewTweetService(
	tweetLogRepo mongo.TweetLogRepo,
	generator ContentGenerator,
	publisher Publisher,
	guard RunGuard,
	tweetLimiter *ratelimit.Limiter,
	genLimiter *ratelimit.Limiter,
) TweetService {
	return &tweetServiceImpl{
		tweetLogRepo: tweetLogRepo,
		generator:    generator,
		publisher:    publisher,
		guard:        guard,
		tweetLimiter: tweetLimiter,
		genLimiter:   genLimiter,
	}
}

// GenerateAndPost 一次完整的生成-发布-落库流程。
// 发布前先写入 pending 记录，保证失败的尝试同样可观测。
func (s *tweetServiceImpl) GenerateAndPost(ctx context.Context, topic string) (*dto.TweetLogDTO, error) {
	release, ok, err := s.guard.Acquire(ctx)
	if err != nil {
		// 锁服务不可用时放弃互斥继续执行，互斥是可选保护
		log.WarnContext(ctx, "获取运行租约失败，跳过互斥保护", "err", err)
	} else if !ok {
		return nil, ErrRunInProgress
	}
	if release != nil {
		defer release()
	}

	if !s.tweetLimiter.Allow(consts.RateKeyTweet) || !s.genLimiter.Allow(consts.RateKeyGenerate) {
		log.WarnContext(ctx, "运行被限流拒绝")
		return nil, ErrRateLimited
	}

	if topic == "" {
		topic = topics[rand.Intn(len(topics))]
	}
	log.InfoContext(ctx, "开始生成推文", "topic", topic)

	s.genLimiter.Record(consts.RateKeyGenerate)
	content, err := s.generator.GenerateTweet(ctx, topic)
	if err != nil {
		log.ErrorContext(ctx, "推文正文生成失败", "topic", topic, "err", err)
		return nil, ErrGenerateContent
	}

	hashtags := s.resolveHashtags(ctx, content, topic)

	entry := &mongo.TweetLog{
		Content:   content,
		Hashtags:  hashtags,
		Status:    mongo.TweetStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err = s.tweetLogRepo.Create(ctx, entry); err != nil {
		log.ErrorContext(ctx, "推文日志创建失败", "err", err)
		return nil, ErrStorage
	}

	fullText := ComposeTweet(content, hashtags)

	// 内容预算阶段已截断过，这里是发布前最后一道保险，超限直接失败而不是悄悄截断
	if utf8.RuneCountInString(fullText) > consts.TweetMaxLen {
		s.markFailed(ctx, entry, ErrTweetTooLong.Error())
		return toTweetLogDTO(entry), ErrTweetTooLong
	}

	tweetID, err := s.publisher.PostTweet(ctx, fullText)
	if err != nil {
		// 先落库再向上抛错
		s.markFailed(ctx, entry, err.Error())
		if errors.Is(err, twitter.ErrDuplicate) {
			return toTweetLogDTO(entry), ErrDuplicateTweet
		}
		log.ErrorContext(ctx, "推文发布失败", "err", err)
		return toTweetLogDTO(entry), ErrPublishRejected
	}

	postedAt := time.Now().UTC()
	if err = s.tweetLogRepo.MarkPosted(ctx, entry.ID, tweetID, postedAt); err != nil {
		// 终态写入失败时不能上报成功，这次运行的可观测性已经没有保证
		log.ErrorContext(ctx, "推文日志终态写入失败", "tweet_id", tweetID, "err", err)
		return nil, ErrStorage
	}
	s.tweetLimiter.Record(consts.RateKeyTweet)

	entry.Status = mongo.TweetStatusPosted
	entry.TweetID = tweetID
	entry.PostedAt = &postedAt

	log.InfoContext(ctx, "推文发布成功", "tweet_id", tweetID, "topic", topic)
	return toTweetLogDTO(entry), nil
}

// RunScheduled 定时触发入口：任何失败都转成结构化结果，调度器永不中断
func (s *tweetServiceImpl) RunScheduled(ctx context.Context) *RunOutcome {
	result, err := s.GenerateAndPost(ctx, "")
	if err != nil {
		outcome := &RunOutcome{Success: false, Error: err.Error()}
		if result != nil {
			outcome.LogID = result.ID
		}
		return outcome
	}
	return &RunOutcome{
		Success: true,
		LogID:   result.ID,
		TweetID: result.TweetID,
	}
}

// GetHistory 分页查询历史记录，status 为空时返回全部
func (s *tweetServiceImpl) GetHistory(ctx context.Context, status string, page, pageSize int) (*dto.HistoryDTO, error) {
	if status != "" && !mongo.ValidStatus(status) {
		return nil, ErrParamInvalid
	}
	if page < 1 || pageSize < 1 {
		return nil, ErrParamInvalid
	}

	list, total, err := s.tweetLogRepo.ListRecent(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	tweets := make([]*dto.TweetLogDTO, 0, len(list))
	for _, entry := range list {
		tweets = append(tweets, toTweetLogDTO(entry))
	}

	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}

	return &dto.HistoryDTO{
		Tweets: tweets,
		Pagination: dto.PaginationDTO{
			Page:  page,
			Limit: pageSize,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// RefreshMetrics 从 Twitter 拉取最新指标并回写，推文不存在时返回 nil
func (s *tweetServiceImpl) RefreshMetrics(ctx context.Context, tweetID string) (*dto.TweetMetricsDTO, error) {
	metrics, err := s.publisher.GetMetrics(ctx, tweetID)
	if err != nil {
		log.ErrorContext(ctx, "推文指标查询失败", "tweet_id", tweetID, "err", err)
		return nil, UnExpectedError
	}
	if metrics == nil {
		return nil, nil
	}

	stored := &mongo.TweetMetrics{}
	_ = copier.Copy(stored, metrics)

	// 本地没有对应记录时视为 no-op
	if err = s.tweetLogRepo.UpdateMetricsByTweetID(ctx, tweetID, stored); err != nil {
		log.WarnContext(ctx, "推文指标回写失败", "tweet_id", tweetID, "err", err)
	}

	result := &dto.TweetMetricsDTO{}
	_ = copier.Copy(result, metrics)
	return result, nil
}

// SoftDelete 软删除本地记录，不会撤回已发布的推文
func (s *tweetServiceImpl) SoftDelete(ctx context.Context, tweetID string) error {
	err := s.tweetLogRepo.MarkDeleted(ctx, tweetID)
	if err != nil {
		if errors.Is(err, mongoDB.ErrNoDocuments) {
			return ErrTweetLogNotFound
		}
		return err
	}
	return nil
}

// resolveHashtags 标签生成失败或为空时回退到主题兜底集合，绝不阻塞发布
func (s *tweetServiceImpl) resolveHashtags(ctx context.Context, content, topic string) []string {
	if !s.genLimiter.Allow(consts.RateKeyGenerate) {
		log.WarnContext(ctx, "标签生成被限流，使用兜底标签", "topic", topic)
		return llm.FallbackHashtags(topic)
	}

	s.genLimiter.Record(consts.RateKeyGenerate)
	hashtags, err := s.generator.GenerateHashtags(ctx, content, topic)
	if err != nil || len(hashtags) == 0 {
		log.WarnContext(ctx, "标签生成不可用，使用兜底标签", "topic", topic, "err", err)
		return llm.FallbackHashtags(topic)
	}
	return hashtags
}

func (s *tweetServiceImpl) markFailed(ctx context.Context, entry *mongo.TweetLog, msg string) {
	if err := s.tweetLogRepo.MarkFailed(ctx, entry.ID, msg); err != nil {
		log.ErrorContext(ctx, "推文日志终态写入失败", "err", err)
	}
	entry.Status = mongo.TweetStatusFailed
	entry.Error = msg
}

// ComposeTweet 正文与标签拼成最终发布文本
func ComposeTweet(content string, hashtags []string) string {
	return strings.TrimSpace(content + "\n\n" + strings.Join(hashtags, " "))
}

func toTweetLogDTO(entry *mongo.TweetLog) *dto.TweetLogDTO {
	d := &dto.TweetLogDTO{}
	_ = copier.Copy(d, entry)
	d.ID = entry.ID.Hex()
	d.CreatedAt = entry.CreatedAt.UTC().Format(time.RFC3339)
	if entry.PostedAt != nil {
		d.PostedAt = entry.PostedAt.UTC().Format(time.RFC3339)
	}
	return d
}
