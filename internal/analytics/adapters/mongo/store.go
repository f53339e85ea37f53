package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/ports"
)

// CollectionName is the default collection for metric buckets.
const CollectionName = "analytics_buckets"

// maxUpsertAttempts bounds retries of the duplicate-key race two
// concurrent first writers hit on the unique bucket index.
const maxUpsertAttempts = 3

var (
	_ ports.BucketStore  = (*BucketStore)(nil)
	_ ports.BucketReader = (*BucketStore)(nil)
)

// platformFields lists every per-platform sub-document counter.
var platformFields = []string{"posts", "likes", "comments", "shares", "impressions", "reach", "engagement"}

type BucketStore struct {
	col Collection
	now func() time.Time
}

func NewBucketStore(col Collection) *BucketStore {
	return &BucketStore{col: col, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the unique bucket key index and the range-scan index.
func (s *BucketStore) Migrate(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tenant_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "period", Value: 1},
				{Key: "bucket_start", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("bucket_key"),
		},
		{
			Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "bucket_start", Value: -1}},
		},
	}
	if err := s.col.CreateIndexes(ctx, models); err != nil {
		return fmt.Errorf("analytics/mongo: migrate indexes: %w", err)
	}
	return nil
}

// UpsertBucket applies inc with a single FindOneAndUpdate whose update is
// an aggregation pipeline: the first stage adds the increments and merges
// the platform entry, the second recomputes derived fields from the
// result. Both run inside the same document write.
func (s *BucketStore) UpsertBucket(ctx context.Context, key domain.BucketKey, inc domain.Increment) (*domain.MetricBucket, error) {
	filter := bucketFilter(key)
	update := upsertPipeline(key, inc, s.now())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		var m bucketModel
		err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
		if err == nil {
			return fromBucketModel(&m), nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("analytics/mongo: upsert bucket: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("analytics/mongo: upsert bucket after %d attempts: %w", maxUpsertAttempts, lastErr)
}

func (s *BucketStore) FindBuckets(ctx context.Context, f ports.BucketFilter) ([]domain.MetricBucket, error) {
	filter := bson.M{
		"tenant_id":    f.TenantID,
		"type":         string(f.Type),
		"period":       string(f.Period),
		"bucket_start": bson.M{"$gte": f.From.UTC(), "$lte": f.To.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "bucket_start", Value: 1}})

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("analytics/mongo: find buckets: %w", err)
	}
	defer cur.Close(ctx)

	var models []bucketModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("analytics/mongo: decode buckets: %w", err)
	}

	result := make([]domain.MetricBucket, 0, len(models))
	for i := range models {
		result = append(result, *fromBucketModel(&models[i]))
	}
	return result, nil
}

func bucketFilter(key domain.BucketKey) bson.D {
	return bson.D{
		{Key: "tenant_id", Value: key.TenantID},
		{Key: "type", Value: string(key.Type)},
		{Key: "period", Value: string(key.Period)},
		{Key: "bucket_start", Value: key.BucketStart.UTC()},
	}
}

func upsertPipeline(key domain.BucketKey, inc domain.Increment, now time.Time) bson.A {
	incStage := bson.D{
		{Key: "tenant_id", Value: literal(key.TenantID)},
		{Key: "type", Value: literal(string(key.Type))},
		{Key: "period", Value: literal(string(key.Period))},
		{Key: "bucket_start", Value: key.BucketStart.UTC()},
	}

	// sorted for a stable pipeline
	names := make([]string, 0, len(inc.Counters))
	for c := range inc.Counters {
		names = append(names, string(c))
	}
	sort.Strings(names)
	for _, name := range names {
		incStage = append(incStage, bson.E{Key: name, Value: addTo("$"+name, inc.Counters[domain.Counter(name)])})
	}

	incStage = append(incStage,
		bson.E{Key: "platforms", Value: platformsExpr(inc)},
		bson.E{Key: "event_count", Value: addTo("$event_count", 1)},
		bson.E{Key: "last_occurred_at", Value: bson.M{"$max": bson.A{"$last_occurred_at", inc.OccurredAt.UTC()}}},
		bson.E{Key: "last_received_at", Value: bson.M{"$max": bson.A{"$last_received_at", inc.ReceivedAt.UTC()}}},
		bson.E{Key: "created_at", Value: bson.M{"$ifNull": bson.A{"$created_at", now}}},
		bson.E{Key: "updated_at", Value: now},
	)

	derivedStage := bson.D{
		{Key: "engagement_rate", Value: percentageExpr("$total_engagement", "$total_reach")},
		{Key: "ai_agent.success_rate", Value: percentageExpr(
			"$ai_agent.tasks_completed",
			bson.M{"$add": bson.A{orZero("$ai_agent.tasks_completed"), orZero("$ai_agent.tasks_failed")}},
		)},
		{Key: "business.calculated_roi", Value: roiExpr("$business.revenue_cents", "$business.cost_cents")},
		{Key: "platforms", Value: bson.M{"$map": bson.M{
			"input": "$platforms",
			"as":    "p",
			"in": bson.M{"$mergeObjects": bson.A{
				"$$p",
				bson.M{"engagement_rate": percentageExpr("$$p.engagement", "$$p.reach")},
			}},
		}}},
	}

	return bson.A{
		bson.M{"$set": incStage},
		bson.M{"$set": derivedStage},
	}
}

// platformsExpr merges the increment into the matching platform entry or
// appends a new entry when the platform is not present yet.
func platformsExpr(inc domain.Increment) any {
	existing := bson.M{"$ifNull": bson.A{"$platforms", bson.A{}}}
	if inc.Platform == "" {
		return existing
	}

	fields := inc.PlatformFields()

	merged := bson.M{}
	fresh := bson.M{"platform": literal(inc.Platform), "engagement_rate": 0.0}
	for _, f := range platformFields {
		v := fields[f]
		fresh[f] = v
		if v != 0 {
			merged[f] = addTo("$$p."+f, v)
		}
	}

	return bson.M{"$cond": bson.M{
		"if": bson.M{"$in": bson.A{literal(inc.Platform), bson.M{"$map": bson.M{
			"input": existing,
			"as":    "p",
			"in":    "$$p.platform",
		}}}},
		"then": bson.M{"$map": bson.M{
			"input": existing,
			"as":    "p",
			"in": bson.M{"$cond": bson.M{
				"if":   bson.M{"$eq": bson.A{"$$p.platform", literal(inc.Platform)}},
				"then": bson.M{"$mergeObjects": bson.A{"$$p", merged}},
				"else": "$$p",
			}},
		}},
		"else": bson.M{"$concatArrays": bson.A{existing, bson.A{fresh}}},
	}}
}

// literal keeps caller strings from being read as field paths or
// operators inside pipeline expressions.
func literal(v string) bson.M {
	return bson.M{"$literal": v}
}

func orZero(path string) bson.M {
	return bson.M{"$ifNull": bson.A{path, int64(0)}}
}

func addTo(path string, v int64) bson.M {
	return bson.M{"$add": bson.A{orZero(path), v}}
}

func percentageExpr(num string, den any) bson.M {
	if s, ok := den.(string); ok {
		den = orZero(s)
	}
	return bson.M{"$cond": bson.A{
		bson.M{"$gt": bson.A{den, 0}},
		bson.M{"$multiply": bson.A{bson.M{"$divide": bson.A{orZero(num), den}}, 100}},
		0.0,
	}}
}

func roiExpr(revenue, cost string) bson.M {
	return bson.M{"$cond": bson.A{
		bson.M{"$gt": bson.A{orZero(cost), 0}},
		bson.M{"$multiply": bson.A{
			bson.M{"$divide": bson.A{bson.M{"$subtract": bson.A{orZero(revenue), orZero(cost)}}, orZero(cost)}},
			100,
		}},
		0.0,
	}}
}
