package model

import "time"

type Office struct {
	ID        string    `json:"id" bson:"_id" validate:"required,uuid"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=128"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// OfficeInput is the body of create, upsert and update calls. ID is only
// honoured by upsert.
type OfficeInput struct {
	ID   *string `json:"id,omitempty" validate:"omitempty,uuid"`
	Name string  `json:"name" validate:"required,min=1,max=128"`
}
