package domain

import "time"

type User struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	DisplayName string           `json:"displayName"`
	Tier        SubscriptionTier `json:"tier"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Avatar is a user-owned visual identity, optionally bound to a character.
type Avatar struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CharacterID *string   `json:"characterId"`
	Name        string    `json:"name"`
	ImageURL    string    `json:"imageUrl"`
	Style       string    `json:"style"`
	CreatedAt   time.Time `json:"createdAt"`
}
