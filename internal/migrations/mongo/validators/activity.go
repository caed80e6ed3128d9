package validators

import "go.mongodb.org/mongo-driver/bson"

var ActivityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"type",
			"occurred_at",
			"recorded_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"booking.created",
					"booking.updated",
					"booking.deleted",
					"office.deleted",
					"user.deleted",
				},
			},

			"occurred_at": bson.M{
				"bsonType": "date",
			},

			"recorded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
