package cron

import (
	"Chirper/internal/api/config"
	"Chirper/internal/job"
	log "log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine   *cron.Cron
	tweetJob *job.TweetJob
	schedule config.ScheduleConfig
}

func NewCronManager(tweetJob *job.TweetJob, schedule config.ScheduleConfig) *Manager {
	return &Manager{
		engine:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		tweetJob: tweetJob,
		schedule: schedule,
	}
}

// RegisterJobs 注册定时任务。Job 内部兜住所有失败，
// 单次运行出错不会导致触发器被注销。
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.schedule.DailyTweet, s.tweetJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "daily_tweet", s.schedule.DailyTweet)
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
