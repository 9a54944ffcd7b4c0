package models

import "time"

// Comment is a user comment attached to a page of a game's rulebook.
// Username is populated on reads that join the users table; it is not a
// column of the comments table itself.
type Comment struct {
	ID          string
	UserID      string
	Username    string
	GameName    string
	Page        string
	CommentText string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
