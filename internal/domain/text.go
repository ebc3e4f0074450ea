package domain

import "time"

// Text is a content item submitted from the landing page.
type Text struct {
	ID        string
	Content   string
	CreatedAt time.Time
}
