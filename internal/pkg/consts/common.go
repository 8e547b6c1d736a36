package consts

// 平台硬限制与内容预算：正文截断到 240，连同标签不得超过 280
const (
	TweetMaxLen      = 280
	TweetContentLen  = 240
	TweetMaxHashtags = 3
)

// 固定窗口限流的逻辑桶名
const (
	RateKeyTweet    = "twitter:post"
	RateKeyGenerate = "llm:generate"
)
