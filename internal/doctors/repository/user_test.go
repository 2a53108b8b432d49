package repository

import (
	"testing"

	"medibuddy/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDoctorQuery(t *testing.T) {
	q := doctorQuery(model.DoctorFilter{})
	if len(q) != 1 || q["role"] != model.RoleDoctor {
		t.Errorf("empty filter should only restrict the role, got %v", q)
	}

	q = doctorQuery(model.DoctorFilter{Name: "a.b", Specialization: "ENT (ear)", Query: "x+y"})
	name, ok := q["name"].(primitive.Regex)
	if !ok || name.Pattern != `a\.b` || name.Options != "i" {
		t.Errorf("name regex = %#v", q["name"])
	}
	specialization, ok := q["doctor.specialization"].(primitive.Regex)
	if !ok || specialization.Pattern != `ENT \(ear\)` {
		t.Errorf("specialization regex = %#v", q["doctor.specialization"])
	}
	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("$or = %#v", q["$or"])
	}
	if first := or[0].(bson.M)["name"].(primitive.Regex); first.Pattern != `x\+y` {
		t.Errorf("free text not escaped: %q", first.Pattern)
	}
}
