package dto

// GenerateTweetDTO 手动触发生成的请求体，topic 为空时随机选题
type GenerateTweetDTO struct {
	Topic string `json:"topic"`
}

type TweetLogDTO struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Hashtags  []string        `json:"hashtags"`
	TweetID   string          `json:"tweet_id,omitempty"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Metrics   TweetMetricsDTO `json:"metrics"`
	CreatedAt string          `json:"created_at"`
	PostedAt  string          `json:"posted_at,omitempty"`
}

type TweetMetricsDTO struct {
	Impressions int `json:"impressions"`
	Retweets    int `json:"retweets"`
	Likes       int `json:"likes"`
	Replies     int `json:"replies"`
}

type HistoryDTO struct {
	Tweets     []*TweetLogDTO `json:"tweets"`
	Pagination PaginationDTO  `json:"pagination"`
}

type PaginationDTO struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}
