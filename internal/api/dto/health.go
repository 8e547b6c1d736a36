package dto

type HealthDTO struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    float64           `json:"uptime"`
	Services  HealthServicesDTO `json:"services"`
	Stats     HealthStatsDTO    `json:"stats"`
}

type HealthServicesDTO struct {
	Database string `json:"database"`
	Twitter  string `json:"twitter"`
	LLM      string `json:"llm"`
}

type HealthStatsDTO struct {
	TotalTweets      int64        `json:"total_tweets"`
	SuccessfulTweets int64        `json:"successful_tweets"`
	FailedTweets     int64        `json:"failed_tweets"`
	LastTweet        *TweetLogDTO `json:"last_tweet"`
}
