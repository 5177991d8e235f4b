package models

import "time"

// Note represents a markdown note owned by a user
type Note struct {
	ID           int64     `json:"id"`
	OwnerID      int64     `json:"owner_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastchangeAt time.Time `json:"lastchange_at"`
}
