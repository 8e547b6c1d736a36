package wire

import (
	"Chirper/internal/api"
	"Chirper/internal/api/config"
	"Chirper/internal/api/handler"
	"Chirper/internal/job"
	"Chirper/internal/pkg/cron"
	"Chirper/internal/pkg/kafka"
	"Chirper/internal/pkg/llm"
	"Chirper/internal/pkg/mongo"
	"Chirper/internal/pkg/ratelimit"
	"Chirper/internal/pkg/twitter"
	"Chirper/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	CronMgr  *cron.Manager
	Producer *kafka.Producer
}

func BuildApplication(db *mongoDB.Database, cfg *config.Config) (*ApplicationContainer, error) {
	generator, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}
	publisher := twitter.NewClient(cfg.Twitter)

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	tweetLogRepo := mongo.NewTweetLogRepo(db)

	// 两个独立配置的固定窗口限流：发布按天、生成调用按分钟
	tweetLimiter := ratelimit.NewLimiter(cfg.RateLimit.TweetsPerDay, 24*time.Hour)
	genLimiter := ratelimit.NewLimiter(cfg.RateLimit.GeneratePerMinute, time.Minute)

	tweetService := service.NewTweetService(
		tweetLogRepo,
		generator,
		publisher,
		service.NewRedisRunGuard(),
		tweetLimiter,
		genLimiter,
	)
	healthService := service.NewHealthService(db, tweetLogRepo, publisher)

	handlers := &api.HandlersGroup{
		TweetHandler:  handler.NewTweetHandler(tweetService),
		HealthHandler: handler.NewHealthHandler(healthService),
	}

	router := api.SetupRouter(handlers)

	tweetJob := job.NewTweetJob(tweetService, producer)
	cronMgr := cron.NewCronManager(tweetJob, cfg.Schedule)

	return &ApplicationContainer{
		Router:   router,
		CronMgr:  cronMgr,
		Producer: producer,
	}, nil
}
