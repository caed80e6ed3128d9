package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	uuidPattern = `^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`
	datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`
)

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"office_id",
			"user_id",
			"date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"office_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"user_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
