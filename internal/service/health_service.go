package service

import (
	"Chirper/internal/api/config"
	"Chirper/internal/api/dto"
	"Chirper/internal/pkg/mongo"
	"context"
	log "log/slog"
	"time"

	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

type HealthService interface {
	Check(ctx context.Context) *dto.HealthDTO
}

type healthServiceImpl struct {
	db           *mongoDB.Database
	tweetLogRepo mongo.TweetLogRepo
	publisher    Publisher
	startedAt    time.Time
}

func NewHealthService(db *mongoDB.Database, tweetLogRepo mongo.TweetLogRepo, publisher Publisher) HealthService {
	return &healthServiceImpl{
		db:           db,
		tweetLogRepo: tweetLogRepo,
		publisher:    publisher,
		startedAt:    time.Now(),
	}
}

// Check 汇总各依赖的健康状态，单项失败只降级对应字段
func (s *healthServiceImpl) Check(ctx context.Context) *dto.HealthDTO {
	health := &dto.HealthDTO{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startedAt).Seconds(),
		Services: dto.HealthServicesDTO{
			Database: "disconnected",
			Twitter:  "unknown",
			LLM:      "not configured",
		},
	}

	if err := s.db.Client().Ping(ctx, nil); err == nil {
		health.Services.Database = "connected"
	} else {
		health.Status = "unhealthy"
	}

	if s.publisher.ValidateCredentials(ctx) {
		health.Services.Twitter = "connected"
	} else {
		health.Services.Twitter = "invalid credentials"
	}

	if config.Cfg.LLM.ApiKey != "" {
		health.Services.LLM = "configured"
	}

	counts, err := s.tweetLogRepo.CountByStatus(ctx)
	if err != nil {
		log.ErrorContext(ctx, "统计推文状态失败", "err", err)
	} else {
		for _, count := range counts {
			health.Stats.TotalTweets += count
		}
		health.Stats.SuccessfulTweets = counts[mongo.TweetStatusPosted]
		health.Stats.FailedTweets = counts[mongo.TweetStatusFailed]
	}

	last, err := s.tweetLogRepo.LastPosted(ctx)
	if err != nil {
		log.ErrorContext(ctx, "查询最近发布记录失败", "err", err)
	} else if last != nil {
		health.Stats.LastTweet = toTweetLogDTO(last)
	}

	return health
}
