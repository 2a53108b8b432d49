package validators

import "go.mongodb.org/mongo-driver/bson"

var availabilityWindow = bson.M{
	"bsonType": "object",
	"required": []string{"day", "start_time", "end_time"},
	"properties": bson.M{
		"day": bson.M{
			"bsonType": "string",
			"enum": []string{
				"Monday",
				"Tuesday",
				"Wednesday",
				"Thursday",
				"Friday",
				"Saturday",
				"Sunday",
			},
		},
		"start_time": bson.M{
			"bsonType": "string",
			"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
		"end_time": bson.M{
			"bsonType": "string",
			"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
		},
	},
}

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"role",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"patient",
					"doctor",
					"admin",
				},
			},

			"doctor": bson.M{
				"bsonType": "object",
				"required": []string{"specialization", "license_number"},
				"properties": bson.M{
					"specialization": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"license_number": bson.M{
						"bsonType":  "string",
						"minLength": 3,
						"maxLength": 50,
					},
					"consultation_fee": bson.M{
						"bsonType": "double",
						"minimum":  0,
					},
					"availability": bson.M{
						"bsonType": "array",
						"items":    availabilityWindow,
					},
				},
			},

			"patient": bson.M{
				"bsonType": "object",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
