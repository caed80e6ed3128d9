package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"username",
			"email",
			"password_hash",
			"is_admin",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},

			"username": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 150,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"password_hash": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"squad": bson.M{
				"enum": []any{nil, "lunar"},
			},

			"club": bson.M{
				"enum": []any{nil, "dekker"},
			},

			"is_admin": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"user_id",
			"expires_at",
		},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 64,
				"maxLength": 64,
			},
			"user_id": bson.M{
				"bsonType": "string",
				"pattern":  uuidPattern,
			},
			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
