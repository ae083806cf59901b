package validators

import "go.mongodb.org/mongo-driver/bson"

var AssignmentCooldownValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"last_assigned_at",
			"expires_at",
			"created_at",
		},
		"additionalProperties": false,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"pattern":   "^[0-9]+$",
				"minLength": 1,
				"maxLength": 20,
			},

			"last_assigned_at": bson.M{
				"bsonType": "date",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
