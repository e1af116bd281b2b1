// internal/domain/models/hub.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub is a regional or topical chapter of the network that members
// join through a reviewed application.
type Hub struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	City        string             `bson:"city,omitempty" json:"city,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"` // active | archived

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
