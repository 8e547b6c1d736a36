package twitter

import (
	"Chirper/internal/api/config"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// ErrDuplicate Twitter 拒绝重复内容
var ErrDuplicate = errors.New("duplicate tweet detected")

// Metrics 推文公开互动指标
type Metrics struct {
	Impressions int
	Retweets    int
	Likes       int
	Replies     int
}

// Client Twitter API v2 客户端，所有请求走 OAuth 1.0a 用户上下文签名
type Client struct {
	http    *resty.Client
	signer  *oauthSigner
	baseURL string
}

func NewClient(cfg config.TwitterConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    httpClient,
		signer:  newOauthSigner(cfg.ApiKey, cfg.ApiSecret, cfg.AccessToken, cfg.AccessSecret),
		baseURL: cfg.BaseURL,
	}
}

type postTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type tweetDetailResponse struct {
	Data struct {
		PublicMetrics struct {
			ImpressionCount int `json:"impression_count"`
			RetweetCount    int `json:"retweet_count"`
			LikeCount       int `json:"like_count"`
			ReplyCount      int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

// PostTweet 发布推文，返回 Twitter 分配的推文 ID
func (s *Client) PostTweet(ctx context.Context, text string) (string, error) {
	auth, err := s.signer.AuthHeader(http.MethodPost, s.baseURL+"/2/tweets", nil)
	if err != nil {
		return "", err
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetBody(map[string]string{"text": text}).
		Post("/2/tweets")
	if err != nil {
		return "", fmt.Errorf("twitter api error: %w", err)
	}

	if resp.StatusCode() == http.StatusForbidden &&
		strings.Contains(strings.ToLower(string(resp.Body())), "duplicate") {
		return "", ErrDuplicate
	}
	if resp.IsError() {
		return "", fmt.Errorf("twitter api error: status %d: %s", resp.StatusCode(), resp.Body())
	}

	var result postTweetResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("twitter api error: %w", err)
	}
	if result.Data.ID == "" {
		return "", errors.New("twitter api error: empty tweet id")
	}

	log.InfoContext(ctx, "推文发布成功", "tweet_id", result.Data.ID)
	return result.Data.ID, nil
}

// GetMetrics 查询推文公开指标，推文不存在时返回 nil
func (s *Client) GetMetrics(ctx context.Context, tweetID string) (*Metrics, error) {
	query := url.Values{"tweet.fields": []string{"public_metrics"}}

	auth, err := s.signer.AuthHeader(http.MethodGet, s.baseURL+"/2/tweets/"+tweetID, query)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetQueryParam("tweet.fields", "public_metrics").
		Get("/2/tweets/" + tweetID)
	if err != nil {
		return nil, fmt.Errorf("twitter api error: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("twitter api error: status %d: %s", resp.StatusCode(), resp.Body())
	}

	var result tweetDetailResponse
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("twitter api error: %w", err)
	}

	pm := result.Data.PublicMetrics
	return &Metrics{
		Impressions: pm.ImpressionCount,
		Retweets:    pm.RetweetCount,
		Likes:       pm.LikeCount,
		Replies:     pm.ReplyCount,
	}, nil
}

// ValidateCredentials 校验凭据有效性
func (s *Client) ValidateCredentials(ctx context.Context) bool {
	auth, err := s.signer.AuthHeader(http.MethodGet, s.baseURL+"/2/users/me", nil)
	if err != nil {
		return false
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		Get("/2/users/me")
	if err != nil {
		log.ErrorContext(ctx, "Twitter 凭据校验请求失败", "err", err)
		return false
	}

	if resp.IsError() {
		log.WarnContext(ctx, "Twitter 凭据无效", "status", resp.StatusCode())
		return false
	}
	return true
}
