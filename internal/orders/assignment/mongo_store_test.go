package assignment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"ptcms/pkg/client"
	"ptcms/pkg/config"
	"ptcms/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newMongoTestStore connects to MONGO_URI and works in a throwaway database
// dropped when the test ends.
func newMongoTestStore(t *testing.T) CooldownStore {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping mongo cooldown store tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := fmt.Sprintf("ptcms_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Database(dbName).Drop(ctx); err != nil {
			t.Logf("failed to drop %s: %v", dbName, err)
		}
		_ = mongoClient.Disconnect(ctx)
	})

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mongoClient},
	}
	return NewMongoCooldownStore(cfg)
}

func TestMongoCooldownStore_RecordAndRead(t *testing.T) {
	store := newMongoTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.LastAssigned(ctx, 42); err != nil || ok {
		t.Fatalf("LastAssigned() on empty store = ok %v, err %v", ok, err)
	}

	at := time.Now().UTC()
	if err := store.Record(ctx, 42, at, 5*time.Minute); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	last, ok, err := store.LastAssigned(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("LastAssigned() = ok %v, err %v", ok, err)
	}
	if !last.Equal(at.Truncate(time.Millisecond)) {
		t.Errorf("LastAssigned() = %v, want %v", last, at.Truncate(time.Millisecond))
	}

	if _, ok, _ := store.LastAssigned(ctx, 43); ok {
		t.Error("cooldown leaked to another booking")
	}
}

func TestMongoCooldownStore_ExpiredEntryIsIgnored(t *testing.T) {
	store := newMongoTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, 42, time.Now().Add(-10*time.Minute), 5*time.Minute); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, ok, err := store.LastAssigned(ctx, 42); err != nil || ok {
		t.Errorf("expired cooldown = ok %v, err %v, want a miss", ok, err)
	}
}

func TestMongoCooldownStore_RecordReplaces(t *testing.T) {
	store := newMongoTestStore(t)
	ctx := context.Background()

	first := time.Now().Add(-time.Minute).UTC()
	second := time.Now().UTC()
	for _, at := range []time.Time{first, second} {
		if err := store.Record(ctx, 42, at, 5*time.Minute); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	last, ok, err := store.LastAssigned(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("LastAssigned() = ok %v, err %v", ok, err)
	}
	if !last.Equal(second.Truncate(time.Millisecond)) {
		t.Errorf("LastAssigned() = %v, want the latest %v", last, second.Truncate(time.Millisecond))
	}
}

func TestMongoCooldownStore_EnforcesCooldownAcrossCoordinators(t *testing.T) {
	store := newMongoTestStore(t)
	req := Request{BookingID: 42, TripIDs: []int64{7}, DriverID: int64Ptr(5)}

	// two coordinators stand in for two replicas sharing the collection
	first := NewCoordinator(&mockAssigner{}, nil, store, 5*time.Minute, logger.Discard())
	second := NewCoordinator(&mockAssigner{}, nil, store, 5*time.Minute, logger.Discard())

	if _, err := first.Assign(context.Background(), req); err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}
	_, err := second.Assign(context.Background(), req)
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("second Assign() error = %v, want CooldownError", err)
	}
	if cooldown.Remaining <= 0 || cooldown.Remaining > 5*time.Minute {
		t.Errorf("remaining = %v", cooldown.Remaining)
	}
}
