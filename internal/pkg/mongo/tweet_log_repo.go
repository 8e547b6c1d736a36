package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TweetLogRepo interface {
	Create(ctx context.Context, entry *TweetLog) (primitive.ObjectID, error)
	MarkPosted(ctx context.Context, id primitive.ObjectID, tweetID string, postedAt time.Time) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string) error
	MarkDeleted(ctx context.Context, tweetID string) error
	UpdateMetricsByTweetID(ctx context.Context, tweetID string, metrics *TweetMetrics) error
	ListRecent(ctx context.Context, status string, page, pageSize int) ([]*TweetLog, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	LastPosted(ctx context.Context) (*TweetLog, error)
}

type tweetLogRepoImpl struct {
	col *mongo.Collection
}

func NewTweetLogRepo(db *mongo.Database) TweetLogRepo {
	return &tweetLogRepoImpl{
		col: db.Collection(TweetLogCollection),
	}
}

// Create 插入一条 pending 状态的记录，发布前先落库保证每次尝试可观测
func (s *tweetLogRepoImpl) Create(ctx context.Context, entry *TweetLog) (primitive.ObjectID, error) {
	if entry.Status == "" {
		entry.Status = TweetStatusPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := s.col.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	entry.ID = id
	return id, nil
}

// MarkPosted 终态写入：记录外部 ID 与发布时间
func (s *tweetLogRepoImpl) MarkPosted(ctx context.Context, id primitive.ObjectID, tweetID string, postedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"status":    TweetStatusPosted,
		"tweet_id":  tweetID,
		"posted_at": postedAt,
	}}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

// MarkFailed 终态写入：记录失败原因
func (s *tweetLogRepoImpl) MarkFailed(ctx context.Context, id primitive.ObjectID, errMsg string) error {
	update := bson.M{"$set": bson.M{
		"status": TweetStatusFailed,
		"error":  errMsg,
	}}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

// MarkDeleted 按外部 ID 软删除，只改本地记录，不会撤回已发布的推文
func (s *tweetLogRepoImpl) MarkDeleted(ctx context.Context, tweetID string) error {
	filter := bson.M{"tweet_id": tweetID}
	update := bson.M{"$set": bson.M{"status": TweetStatusDeleted}}
	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateMetricsByTweetID 按外部 ID 刷新互动指标，记录不存在时视为 no-op
func (s *tweetLogRepoImpl) UpdateMetricsByTweetID(ctx context.Context, tweetID string, metrics *TweetMetrics) error {
	filter := bson.M{"tweet_id": tweetID}
	update := bson.M{"$set": bson.M{"metrics": metrics}}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}

// ListRecent 按创建时间倒序分页查询，page 从 1 开始，status 为空时不过滤
func (s *tweetLogRepoImpl) ListRecent(ctx context.Context, status string, page, pageSize int) ([]*TweetLog, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(pageSize)).
		SetSkip(int64((page - 1) * pageSize))

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*TweetLog
	if err = cursor.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// CountByStatus 聚合各状态的记录数
func (s *tweetLogRepoImpl) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// LastPosted 最近一条成功发布的记录，没有时返回 nil
func (s *tweetLogRepoImpl) LastPosted(ctx context.Context) (*TweetLog, error) {
	filter := bson.M{"status": TweetStatusPosted}
	opts := options.FindOne().SetSort(bson.D{{Key: "posted_at", Value: -1}})

	var entry TweetLog
	err := s.col.FindOne(ctx, filter, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
