package consts

const (
	TweetRunLock = "tweet:generate:lock"
)
