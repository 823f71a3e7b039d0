package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Defect categories as stored in the defects table.
const (
	CategoryEmotional   = "emocional"
	CategoryPhysical    = "fisico"
	CategoryPersonality = "personalidad"
	CategoryHabits      = "habitos"
)

// Categories lists every accepted defect category.
var Categories = []string{CategoryEmotional, CategoryPhysical, CategoryPersonality, CategoryHabits}

// IsValidCategory reports whether c is one of the known defect categories.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// User table
type User struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:128;not null"`
	Age         int       `gorm:"not null"`
	Bio         *string   `gorm:"type:text"`
	IsValidated bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Defects []Defect `gorm:"constraint:OnDelete:CASCADE"`
	Photos  []Photo  `gorm:"constraint:OnDelete:CASCADE"`
}

// Defect is a self-declared flaw. PhotoURL is only set for physical defects.
// Position keeps the order in which the user listed them.
type Defect struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"size:36;not null;index"`
	Category    string    `gorm:"size:32;not null"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text;not null"`
	PhotoURL    *string   `gorm:"type:longtext"`
	Position    int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Photo belongs to one user. IsValidated is flipped by the photo validator.
type Photo struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	UserID             string    `gorm:"size:36;not null;index"`
	URL                string    `gorm:"type:longtext;not null"`
	IsValidated        bool      `gorm:"not null;default:false"`
	ValidationFeedback *string   `gorm:"type:text"`
	IsPrimary          bool      `gorm:"not null;default:false"`
	Position           int       `gorm:"not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

// Like represents a directed like/pass from one user to another.
//
// Unique index: (from_user_id, to_user_id)
//   - One decision per directed pair; the first decision wins.
//
// Index idx_likes_to_from_like(to_user_id, from_user_id, is_like) serves the
// reciprocal-like lookup done on every like.
type Like struct {
	ID         string    `gorm:"primaryKey;size:36"`
	FromUserID string    `gorm:"size:36;not null;uniqueIndex:idx_likes_from_to,priority:1"`
	ToUserID   string    `gorm:"size:36;not null;uniqueIndex:idx_likes_from_to,priority:2;index:idx_likes_to_from_like,priority:1"`
	IsLike     bool      `gorm:"not null;index:idx_likes_to_from_like,priority:3"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Match is an undirected pairing created on mutual like.
// PairKey is the canonical "min:max" of the two ids and is unique, so at most
// one match can exist per pair no matter how the likes race.
type Match struct {
	ID                 string                      `gorm:"primaryKey;size:36"`
	User1ID            string                      `gorm:"size:36;not null;index"`
	User2ID            string                      `gorm:"size:36;not null;index"`
	PairKey            string                      `gorm:"size:80;not null;uniqueIndex"`
	CompatibilityScore int                         `gorm:"not null"`
	SharedDefects      datatypes.JSONSlice[string] `gorm:"type:json;not null"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime"`
}

// OtherUserID returns the id of the party that is not userID.
func (m *Match) OtherUserID(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// PairKey canonicalizes an unordered user pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error   { newID(&u.ID); return nil }
func (d *Defect) BeforeCreate(*gorm.DB) error { newID(&d.ID); return nil }
func (p *Photo) BeforeCreate(*gorm.DB) error  { newID(&p.ID); return nil }
func (l *Like) BeforeCreate(*gorm.DB) error   { newID(&l.ID); return nil }

func (m *Match) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	m.PairKey = PairKey(m.User1ID, m.User2ID)
	if m.SharedDefects == nil {
		m.SharedDefects = datatypes.JSONSlice[string]{}
	}
	return nil
}

// AllModels lists every table managed by AutoMigrate, parents first.
func AllModels() []any {
	return []any{&User{}, &Defect{}, &Photo{}, &Like{}, &Match{}}
}
