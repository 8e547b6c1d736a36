package job

import (
	"Chirper/internal/pkg/kafka"
	"Chirper/internal/pkg/logger"
	"Chirper/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// TweetJob 每日定时触发一次生成发布流程。
// 运行结果只记日志和发事件，失败不向调度器抛出。
type TweetJob struct {
	tweetSvc service.TweetService
	producer *kafka.Producer
}

func NewTweetJob(tweetSvc service.TweetService, producer *kafka.Producer) *TweetJob {
	return &TweetJob{
		tweetSvc: tweetSvc,
		producer: producer,
	}
}

func (s *TweetJob) Run() {
	traceID := "job-tweet-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	log.InfoContext(ctx, "定时推文任务触发")

	outcome := s.tweetSvc.RunScheduled(ctx)

	if outcome.Success {
		log.InfoContext(ctx, "定时推文任务完成",
			"tweet_id", outcome.TweetID,
			"log_id", outcome.LogID)
	} else {
		log.ErrorContext(ctx, "定时推文任务失败",
			"log_id", outcome.LogID,
			"err", outcome.Error)
	}

	if err := s.producer.Publish(ctx, traceID, outcome); err != nil {
		log.ErrorContext(ctx, "运行结果事件推送失败", "err", err)
	}
}
