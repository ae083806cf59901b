package mongo

import (
	"slices"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCooldownCollection(t *testing.T) {
	def, ok := collections()[AssignmentCooldownsCollection]
	if !ok {
		t.Fatalf("collection %s not migrated", AssignmentCooldownsCollection)
	}

	if len(def.Indexes) != 1 {
		t.Fatalf("indexes = %d, want 1", len(def.Indexes))
	}
	opts := def.Indexes[0].Options
	if opts == nil || opts.ExpireAfterSeconds == nil || *opts.ExpireAfterSeconds != 0 {
		t.Errorf("ttl index must expire at expires_at, got %+v", opts)
	}
	if opts != nil && (opts.Name == nil || *opts.Name != "ttl_expires_at") {
		t.Errorf("index name = %v", opts.Name)
	}

	schema, ok := def.Validator["$jsonSchema"].(bson.M)
	if !ok {
		t.Fatalf("validator has no $jsonSchema: %v", def.Validator)
	}
	required, _ := schema["required"].([]string)
	for _, field := range []string{"_id", "last_assigned_at", "expires_at"} {
		if !slices.Contains(required, field) {
			t.Errorf("field %s not required", field)
		}
	}
}
