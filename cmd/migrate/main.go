package main

import (
	"context"
	"time"

	mongoMigration "ptcms/internal/migrations/mongo"
	"ptcms/pkg/config"
)

const (
	JobName    = "cooldown-migration"
	jobTimeout = 2 * time.Minute
)

// Prepares the assignment cooldown collection. Safe to rerun: existing
// indexes and validators are left in place or updated.
func main() {
	cfg := config.Load(JobName)
	if !cfg.UsesMongo() {
		cfg.Log.Info("Cooldown store is not mongo, nothing to migrate", "cooldown_store", cfg.CooldownStore)
		return
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Cooldown migration failed", "database", cfg.MongoDatabaseName, "error", err)
	}
	cfg.Log.Info("Cooldown migration completed",
		"database", cfg.MongoDatabaseName,
		"duration", time.Since(started).String(),
	)
}
