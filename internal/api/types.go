// Package api holds the JSON views returned over gRPC.
package api

import (
	"time"

	"github.com/oggyb/imperfect/internal/db"
)

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Bio         *string   `json:"bio"`
	IsValidated bool      `json:"isValidated"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Defect struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PhotoURL    *string `json:"photoUrl"`
}

type Photo struct {
	ID                 string  `json:"id"`
	URL                string  `json:"url"`
	IsValidated        bool    `json:"isValidated"`
	ValidationFeedback *string `json:"validationFeedback"`
	IsPrimary          bool    `json:"isPrimary"`
}

// Profile is a user with everything attached to them.
type Profile struct {
	User
	Defects []Defect `json:"defects"`
	Photos  []Photo  `json:"photos"`
}

func FromUser(u db.User) User {
	return User{
		ID:          u.ID,
		Name:        u.Name,
		Age:         u.Age,
		Bio:         u.Bio,
		IsValidated: u.IsValidated,
		CreatedAt:   u.CreatedAt,
	}
}

func FromDefects(defects []db.Defect) []Defect {
	out := make([]Defect, 0, len(defects))
	for _, d := range defects {
		out = append(out, Defect{
			ID:          d.ID,
			Category:    d.Category,
			Title:       d.Title,
			Description: d.Description,
			PhotoURL:    d.PhotoURL,
		})
	}
	return out
}

func FromPhotos(photos []db.Photo) []Photo {
	out := make([]Photo, 0, len(photos))
	for _, p := range photos {
		out = append(out, Photo{
			ID:                 p.ID,
			URL:                p.URL,
			IsValidated:        p.IsValidated,
			ValidationFeedback: p.ValidationFeedback,
			IsPrimary:          p.IsPrimary,
		})
	}
	return out
}

// NewProfile assembles a Profile from stored rows.
func NewProfile(u db.User, defects []db.Defect, photos []db.Photo) Profile {
	return Profile{User: FromUser(u), Defects: FromDefects(defects), Photos: FromPhotos(photos)}
}
