package service

import (
	"Chirper/internal/pkg/consts"
	"Chirper/internal/pkg/llm"
	"Chirper/internal/pkg/mongo"
	"Chirper/internal/pkg/ratelimit"
	"Chirper/internal/pkg/twitter"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
)

type fakeRepo struct {
	entries   []*mongo.TweetLog
	createErr error
	markErr   error
}

func (s *fakeRepo) Create(_ context.Context, entry *mongo.TweetLog) (primitive.ObjectID, error) {
	if s.createErr != nil {
		return primitive.NilObjectID, s.createErr
	}
	entry.ID = primitive.NewObjectID()
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

func (s *fakeRepo) MarkPosted(_ context.Context, id primitive.ObjectID, tweetID string, postedAt time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	for _, e := range s.entries {
		if e.ID == id {
			e.Status = mongo.TweetStatusPosted
			e.TweetID = tweetID
			e.PostedAt = &postedAt
		}
	}
	return nil
}

func (s *fakeRepo) MarkFailed(_ context.Context, id primitive.ObjectID, errMsg string) error {
	if s.markErr != nil {
		return s.markErr
	}
	for _, e := range s.entries {
		if e.ID == id {
			e.Status = mongo.TweetStatusFailed
			e.Error = errMsg
		}
	}
	return nil
}

func (s *fakeRepo) MarkDeleted(_ context.Context, tweetID string) error {
	for _, e := range s.entries {
		if e.TweetID == tweetID {
			e.Status = mongo.TweetStatusDeleted
			return nil
		}
	}
	return mongoDB.ErrNoDocuments
}

func (s *fakeRepo) UpdateMetricsByTweetID(_ context.Context, tweetID string, metrics *mongo.TweetMetrics) error {
	for _, e := range s.entries {
		if e.TweetID == tweetID {
			e.Metrics = *metrics
		}
	}
	return nil
}

func (s *fakeRepo) ListRecent(_ context.Context, status string, page, pageSize int) ([]*mongo.TweetLog, int64, error) {
	var matched []*mongo.TweetLog
	for _, e := range s.entries {
		if status == "" || e.Status == status {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *fakeRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, e := range s.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (s *fakeRepo) LastPosted(_ context.Context) (*mongo.TweetLog, error) {
	var last *mongo.TweetLog
	for _, e := range s.entries {
		if e.Status != mongo.TweetStatusPosted {
			continue
		}
		if last == nil || e.PostedAt.After(*last.PostedAt) {
			last = e
		}
	}
	return last, nil
}

type fakeGenerator struct {
	content    string
	contentErr error
	tags       []string
	tagsErr    error
	topics     []string
}

func (s *fakeGenerator) GenerateTweet(_ context.Context, topic string) (string, error) {
	s.topics = append(s.topics, topic)
	if s.contentErr != nil {
		return "", s.contentErr
	}
	return s.content, nil
}

func (s *fakeGenerator) GenerateHashtags(_ context.Context, _, _ string) ([]string, error) {
	if s.tagsErr != nil {
		return nil, s.tagsErr
	}
	return s.tags, nil
}

type fakePublisher struct {
	tweetID string
	postErr error
	metrics *twitter.Metrics
	valid   bool
	posted  []string
}

func (s *fakePublisher) PostTweet(_ context.Context, text string) (string, error) {
	if s.postErr != nil {
		return "", s.postErr
	}
	s.posted = append(s.posted, text)
	return s.tweetID, nil
}

func (s *fakePublisher) GetMetrics(_ context.Context, _ string) (*twitter.Metrics, error) {
	return s.metrics, nil
}

func (s *fakePublisher) ValidateCredentials(_ context.Context) bool {
	return s.valid
}

type fakeGuard struct {
	busy bool
}

func (s *fakeGuard) Acquire(_ context.Context) (func(), bool, error) {
	if s.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}

type fixture struct {
	repo      *fakeRepo
	generator *fakeGenerator
	publisher *fakePublisher
	guard     *fakeGuard
	svc       TweetService
}

func newFixture() *fixture {
	repo := &fakeRepo{}
	generator := &fakeGenerator{content: "Interesting thoughts on software.", tags: []string{"#Tech", "#Code", "#Dev"}}
	publisher := &fakePublisher{tweetID: "tw-1", valid: true}
	guard := &fakeGuard{}

	svc := NewTweetService(
		repo,
		generator,
		publisher,
		guard,
		ratelimit.NewLimiter(10000, 24*time.Hour),
		ratelimit.NewLimiter(10000, time.Minute),
	)
	return &fixture{repo: repo, generator: generator, publisher: publisher, guard: guard, svc: svc}
}

func TestGenerateAndPostSuccess(t *testing.T) {
	f := newFixture()

	result, err := f.svc.GenerateAndPost(context.Background(), "blockchain")
	require.NoError(t, err)

	require.Len(t, f.repo.entries, 1)
	entry := f.repo.entries[0]
	assert.Equal(t, mongo.TweetStatusPosted, entry.Status)
	assert.Equal(t, "tw-1", entry.TweetID)
	assert.NotNil(t, entry.PostedAt)
	assert.Empty(t, entry.Error)

	assert.Equal(t, "tw-1", result.TweetID)
	assert.Equal(t, mongo.TweetStatusPosted, result.Status)

	require.Len(t, f.publisher.posted, 1)
	assert.Equal(t, "Interesting thoughts on software.\n\n#Tech #Code #Dev", f.publisher.posted[0])
}

func TestGenerateAndPostUsesGivenTopic(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GenerateAndPost(context.Background(), "quantum computing")
	require.NoError(t, err)

	assert.Equal(t, []string{"quantum computing"}, f.generator.topics)
}

func TestGenerateAndPostPicksRandomTopic(t *testing.T) {
	f := newFixture()

	seen := make(map[string]int)
	for i := 0; i < 500; i++ {
		_, err := f.svc.GenerateAndPost(context.Background(), "")
		require.NoError(t, err)
	}
	for _, topic := range f.generator.topics {
		seen[topic]++
	}

	// 均匀随机选题：500 次后应覆盖全部 10 个主题
	assert.Len(t, seen, len(topics))
	for topic, count := range seen {
		assert.Contains(t, topics, topic)
		assert.Greater(t, count, 0)
	}
}

func TestGenerateAndPostCreatesRecordOnPublishFailure(t *testing.T) {
	f := newFixture()
	f.publisher.postErr = errors.New("twitter api error: status 500")

	result, err := f.svc.GenerateAndPost(context.Background(), "data science")
	assert.ErrorIs(t, err, ErrPublishRejected)

	require.Len(t, f.repo.entries, 1)
	entry := f.repo.entries[0]
	assert.Equal(t, mongo.TweetStatusFailed, entry.Status)
	assert.Equal(t, "twitter api error: status 500", entry.Error)
	assert.Empty(t, entry.TweetID)

	require.NotNil(t, result)
	assert.Equal(t, mongo.TweetStatusFailed, result.Status)
}

func TestGenerateAndPostDistinguishesDuplicate(t *testing.T) {
	f := newFixture()
	f.publisher.postErr = twitter.ErrDuplicate

	_, err := f.svc.GenerateAndPost(context.Background(), "cybersecurity")
	assert.ErrorIs(t, err, ErrDuplicateTweet)

	require.Len(t, f.repo.entries, 1)
	assert.Equal(t, mongo.TweetStatusFailed, f.repo.entries[0].Status)
}

func TestGenerateAndPostFallbackHashtags(t *testing.T) {
	f := newFixture()
	f.generator.tagsErr = errors.New("model unavailable")

	_, err := f.svc.GenerateAndPost(context.Background(), "technology")
	require.NoError(t, err)

	require.Len(t, f.repo.entries, 1)
	assert.Equal(t, llm.FallbackHashtags("technology"), f.repo.entries[0].Hashtags)
}

func TestGenerateAndPostFallbackOnEmptyHashtags(t *testing.T) {
	f := newFixture()
	f.generator.tags = nil

	_, err := f.svc.GenerateAndPost(context.Background(), "tech startups")
	require.NoError(t, err)

	assert.Equal(t, llm.FallbackHashtags("tech startups"), f.repo.entries[0].Hashtags)
}

func TestGenerateAndPostRejectsOverlongComposition(t *testing.T) {
	f := newFixture()
	// 正文 239 字符 + 3 个长标签，拼接后超过 280，必须拒绝而不是截断
	f.generator.content = strings.Repeat("a", 239)
	f.generator.tags = []string{"#VeryLongHashtagOne", "#VeryLongHashtagTwo", "#VeryLongHashtagThree"}

	_, err := f.svc.GenerateAndPost(context.Background(), "web development")
	assert.ErrorIs(t, err, ErrTweetTooLong)

	require.Len(t, f.repo.entries, 1)
	assert.Equal(t, mongo.TweetStatusFailed, f.repo.entries[0].Status)
	assert.Empty(t, f.publisher.posted, "publish must not be attempted")
}

func TestGenerateAndPostAbortsOnGenerationFailure(t *testing.T) {
	f := newFixture()
	f.generator.contentErr = errors.New("model down")

	_, err := f.svc.GenerateAndPost(context.Background(), "cloud computing")
	assert.ErrorIs(t, err, ErrGenerateContent)
	assert.Empty(t, f.repo.entries, "no record without generated content")
	assert.Empty(t, f.publisher.posted)
}

func TestGenerateAndPostStorageFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("mongo down")

	_, err := f.svc.GenerateAndPost(context.Background(), "machine learning")
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, f.publisher.posted, "must not publish without an observable record")
}

func TestGenerateAndPostRateLimited(t *testing.T) {
	repo := &fakeRepo{}
	tweetLimiter := ratelimit.NewLimiter(1, 24*time.Hour)
	tweetLimiter.Record(consts.RateKeyTweet)

	svc := NewTweetService(
		repo,
		&fakeGenerator{content: "text", tags: []string{"#A"}},
		&fakePublisher{tweetID: "tw-9", valid: true},
		&fakeGuard{},
		tweetLimiter,
		ratelimit.NewLimiter(100, time.Minute),
	)

	_, err := svc.GenerateAndPost(context.Background(), "blockchain")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, repo.entries)
}

func TestGenerateAndPostRunInProgress(t *testing.T) {
	f := newFixture()
	f.guard.busy = true

	_, err := f.svc.GenerateAndPost(context.Background(), "blockchain")
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Empty(t, f.repo.entries)
}

func TestStatusInvariantHoldsAcrossRuns(t *testing.T) {
	f := newFixture()

	_, _ = f.svc.GenerateAndPost(context.Background(), "technology")
	f.publisher.postErr = errors.New("rejected")
	_, _ = f.svc.GenerateAndPost(context.Background(), "science")
	f.publisher.postErr = nil
	f.publisher.tweetID = "tw-2"
	_, _ = f.svc.GenerateAndPost(context.Background(), "business")

	require.Len(t, f.repo.entries, 3)
	for _, e := range f.repo.entries {
		assert.Equal(t, e.Status == mongo.TweetStatusPosted, e.TweetID != "",
			"tweet_id present iff posted")
		assert.Equal(t, e.Status == mongo.TweetStatusFailed, e.Error != "",
			"error present iff failed")
	}
}

func TestRunScheduledConvertsFailure(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("mongo down")

	outcome := f.svc.RunScheduled(context.Background())

	require.NotNil(t, outcome)
	assert.False(t, outcome.Success)
	assert.Equal(t, ErrStorage.Error(), outcome.Error)
}

func TestRunScheduledSuccess(t *testing.T) {
	f := newFixture()

	outcome := f.svc.RunScheduled(context.Background())

	assert.True(t, outcome.Success)
	assert.Equal(t, "tw-1", outcome.TweetID)
	assert.NotEmpty(t, outcome.LogID)
}

func TestGetHistoryPagination(t *testing.T) {
	f := newFixture()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		created := base.Add(time.Duration(i) * time.Hour)
		posted := created.Add(time.Minute)
		f.repo.entries = append(f.repo.entries, &mongo.TweetLog{
			ID:        primitive.NewObjectID(),
			Content:   "posted",
			Status:    mongo.TweetStatusPosted,
			TweetID:   "tw",
			CreatedAt: created,
			PostedAt:  &posted,
		})
	}
	for i := 0; i < 2; i++ {
		f.repo.entries = append(f.repo.entries, &mongo.TweetLog{
			ID:        primitive.NewObjectID(),
			Content:   "failed",
			Status:    mongo.TweetStatusFailed,
			Error:     "boom",
			CreatedAt: base.Add(time.Duration(10+i) * time.Hour),
		})
	}

	history, err := f.svc.GetHistory(context.Background(), mongo.TweetStatusPosted, 1, 2)
	require.NoError(t, err)

	assert.Len(t, history.Tweets, 2)
	assert.Equal(t, int64(5), history.Pagination.Total)
	assert.Equal(t, int64(3), history.Pagination.Pages)
}

func TestGetHistoryRejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetHistory(context.Background(), "archived", 1, 10)
	assert.ErrorIs(t, err, ErrParamInvalid)

	_, err = f.svc.GetHistory(context.Background(), "", 0, 10)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestRefreshMetricsUpdatesStore(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GenerateAndPost(context.Background(), "technology")
	require.NoError(t, err)

	f.publisher.metrics = &twitter.Metrics{Impressions: 42, Retweets: 2, Likes: 7, Replies: 1}

	metrics, err := f.svc.RefreshMetrics(context.Background(), "tw-1")
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.Equal(t, 42, metrics.Impressions)

	assert.Equal(t, 42, f.repo.entries[0].Metrics.Impressions)
	assert.Equal(t, 7, f.repo.entries[0].Metrics.Likes)
}

func TestRefreshMetricsAbsent(t *testing.T) {
	f := newFixture()

	metrics, err := f.svc.RefreshMetrics(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestSoftDelete(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GenerateAndPost(context.Background(), "technology")
	require.NoError(t, err)

	require.NoError(t, f.svc.SoftDelete(context.Background(), "tw-1"))
	assert.Equal(t, mongo.TweetStatusDeleted, f.repo.entries[0].Status)

	assert.ErrorIs(t, f.svc.SoftDelete(context.Background(), "tw-404"), ErrTweetLogNotFound)
}
