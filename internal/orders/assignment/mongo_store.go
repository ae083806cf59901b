package assignment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"ptcms/pkg/config"
	"ptcms/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CooldownCollection = "assignment_cooldowns"

// mongoCooldownStore shares cooldowns between replicas. Documents carry
// expires_at and a TTL index removes them; reads also check expires_at since
// the TTL monitor runs only about once a minute.
type mongoCooldownStore struct {
	collection   *mongo.Collection
	writeTimeout time.Duration
	readTimeout  time.Duration
}

func NewMongoCooldownStore(cfg *config.Config) CooldownStore {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCooldownStore{
		collection:   db.Collection(CooldownCollection),
		writeTimeout: cfg.WriteTimeout,
		readTimeout:  cfg.ReadTimeout,
	}
}

func (s *mongoCooldownStore) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *mongoCooldownStore) LastAssigned(ctx context.Context, bookingID int64) (time.Time, bool, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	var doc model.AssignmentCooldown
	err := s.collection.FindOne(ctx, bson.M{
		"_id":        cooldownID(bookingID),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return doc.LastAssignedAt, true, nil
}

func (s *mongoCooldownStore) Record(ctx context.Context, bookingID int64, at time.Time, window time.Duration) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	at = at.UTC().Truncate(time.Millisecond)
	doc := model.AssignmentCooldown{
		ID:             cooldownID(bookingID),
		LastAssignedAt: at,
		ExpiresAt:      at.Add(window),
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func cooldownID(bookingID int64) string {
	return strconv.FormatInt(bookingID, 10)
}
