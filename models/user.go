package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User supplies identity for post authorship and login. The portal does not
// manage profiles beyond the fields projected into AuthorInfo.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	PerfilPhoto  string             `bson:"perfil_photo" json:"perfil_photo"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
