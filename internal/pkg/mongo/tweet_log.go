package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TweetLogCollection = "tweet_log"

// 推文记录状态机：pending 为初始态，posted / failed 为运行终态，
// deleted 为后续人工操作产生的软删除终态
const (
	TweetStatusPending = "pending"
	TweetStatusPosted  = "posted"
	TweetStatusFailed  = "failed"
	TweetStatusDeleted = "deleted"
)

// ValidStatus 判断是否为合法状态值
func ValidStatus(status string) bool {
	switch status {
	case TweetStatusPending, TweetStatusPosted, TweetStatusFailed, TweetStatusDeleted:
		return true
	}
	return false
}

// TweetLog 每次生成尝试写入一条，tweet_id 仅在 posted 时存在，error 仅在 failed 时存在
type TweetLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Content   string             `bson:"content" json:"content"`                 // 推文正文，含标签不超过 280 字符
	Hashtags  []string           `bson:"hashtags" json:"hashtags"`               // 最多 3 个，按插入顺序展示
	TweetID   string             `bson:"tweet_id,omitempty" json:"tweetId"`      // Twitter 返回的外部 ID
	Status    string             `bson:"status" json:"status"`
	Error     string             `bson:"error,omitempty" json:"error"`
	Metrics   TweetMetrics       `bson:"metrics" json:"metrics"` // 按需从 Twitter 刷新
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	PostedAt  *time.Time         `bson:"posted_at,omitempty" json:"postedAt"` // 仅在转入 posted 时写入
}

// TweetMetrics 互动指标计数
type TweetMetrics struct {
	Impressions int `bson:"impressions" json:"impressions"`
	Retweets    int `bson:"retweets" json:"retweets"`
	Likes       int `bson:"likes" json:"likes"`
	Replies     int `bson:"replies" json:"replies"`
}
