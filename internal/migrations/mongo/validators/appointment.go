package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"doctor_id",
			"patient_id",
			"date_time",
			"duration",
			"status",
			"type",
			"symptoms",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"patient_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date_time": bson.M{
				"bsonType": "date",
			},

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  480,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"scheduled",
					"completed",
					"cancelled",
					"no-show",
				},
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"in-person",
					"video-consultation",
				},
			},

			"symptoms": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2000,
			},

			"diagnosis": bson.M{
				"bsonType":  "string",
				"maxLength": 4000,
			},

			"prescription": bson.M{
				"bsonType":  "string",
				"maxLength": 4000,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 4000,
			},

			"follow_up": bson.M{
				"bsonType": "object",
				"required": []string{"required"},
				"properties": bson.M{
					"required": bson.M{"bsonType": "bool"},
					"date":     bson.M{"bsonType": "date"},
				},
			},

			"payment_amount": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"completed",
					"refunded",
				},
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
