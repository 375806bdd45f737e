package model

import "time"

// Review is a product review.
type Review struct {
	ID        int64     `json:"id"`
	Product   int64     `json:"product,omitempty"`
	User      string    `json:"user,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ReviewInput is the create/update payload.
type ReviewInput struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}
