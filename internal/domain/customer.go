package domain

import "time"

// CustomerRecord is keyed by email and upserted with merge semantics.
type CustomerRecord struct {
	FullName  string    `json:"full_name" bson:"full_name" firestore:"fullName"`
	Email     string    `json:"email" bson:"email" firestore:"email"`
	Phone     string    `json:"phone_number" bson:"phone_number" firestore:"phoneNumber"`
	Location  string    `json:"location" bson:"location" firestore:"location"`
	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty" firestore:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" firestore:"updatedAt,omitempty"`
}
