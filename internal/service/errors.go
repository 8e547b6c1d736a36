package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	TooManyRequests     = 429
	InternalServerError = 500
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrGenerateContent  = errors.New("推文内容生成失败")
	ErrTweetTooLong     = errors.New("推文长度超出平台限制")
	ErrDuplicateTweet   = errors.New("重复推文被拒绝")
	ErrPublishRejected  = errors.New("推文发布失败")
	ErrTweetLogNotFound = errors.New("推文记录不存在")
	ErrRateLimited      = errors.New("触发频率限制")
	ErrRunInProgress    = errors.New("已有生成任务正在执行")
	ErrStorage          = errors.New("推文日志写入失败")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:     BadRequest,
	ErrGenerateContent:  InternalServerError,
	ErrTweetTooLong:     BadRequest,
	ErrDuplicateTweet:   BadRequest,
	ErrPublishRejected:  InternalServerError,
	ErrTweetLogNotFound: NotFound,
	ErrRateLimited:      TooManyRequests,
	ErrRunInProgress:    Conflict,
	ErrStorage:          InternalServerError,
	UnExpectedError:     InternalServerError,
}
