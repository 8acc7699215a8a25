package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SuggestionStatus is the moderation state of a user suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Valid reports whether s is a known moderation state.
func (s SuggestionStatus) Valid() bool {
	return s == SuggestionPending || s == SuggestionApproved || s == SuggestionRejected
}

// SuggestionCategories lists the accepted suggestion categories.
var SuggestionCategories = []string{"product_name", "category", "brand", "color", "size", "other"}

// MaxSuggestionLength bounds the suggestion text.
const MaxSuggestionLength = 100

// ValidSuggestionCategory reports whether c is accepted.
func ValidSuggestionCategory(c string) bool {
	for _, known := range SuggestionCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Suggestion is a moderated, votable storefront suggestion.
type Suggestion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Suggestion string             `bson:"suggestion" json:"suggestion"`
	Category   string             `bson:"category" json:"category"`
	UserIP     string             `bson:"user_ip,omitempty" json:"-"`
	UserAgent  string             `bson:"user_agent,omitempty" json:"-"`
	Status     SuggestionStatus   `bson:"status" json:"status"`
	Votes      int                `bson:"votes" json:"votes"`
	Voters     []string           `bson:"voters" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
