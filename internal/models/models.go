package models

import (
	"time"
)

// Account is a registered user. Exactly one of RegNo or Email is set,
// decided by the role at registration.
type Account struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	RegNo     *string   `gorm:"uniqueIndex" json:"regNo,omitempty"`
	Email     *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	Year      string    `gorm:"not null" json:"year"`
	Role      string    `gorm:"not null;index" json:"role"`
	LinkedIn  *string   `json:"linkedin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sentiment is the score record stored alongside a post's body.
type Sentiment struct {
	Negative float64 `gorm:"not null;default:0" json:"neg"`
	Neutral  float64 `gorm:"not null;default:0" json:"neu"`
	Positive float64 `gorm:"not null;default:0" json:"pos"`
	Compound float64 `gorm:"not null;default:0" json:"compound"`
}

// Post is a published blog entry.
type Post struct {
	ID         string     `gorm:"primaryKey;size:36" json:"_id"`
	Title      string     `gorm:"not null" json:"title"`
	Slug       string     `gorm:"not null;index" json:"slug"`
	Company    string     `gorm:"not null;index" json:"company"`
	Content    string     `gorm:"not null" json:"content"`
	AuthorName string     `gorm:"not null" json:"author_name"`
	AuthorRole string     `gorm:"not null" json:"author_role"`
	AuthorYear string     `json:"author_year"`
	LinkedIn   *string    `json:"linkedin"`
	Sentiment  Sentiment  `gorm:"embedded;embeddedPrefix:sentiment_" json:"sentiment"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"-"`
	Reactions  []Reaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

type ReactionKind string

const (
	Like    ReactionKind = "like"
	Dislike ReactionKind = "dislike"
)

// Reaction places one user in a post's liker or disliker set. The unique
// index allows a single row per (post, user), which keeps the sets disjoint.
type Reaction struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	PostID    string       `gorm:"not null;size:36;uniqueIndex:idx_reaction_post_user" json:"postId"`
	UserID    string       `gorm:"not null;uniqueIndex:idx_reaction_post_user" json:"userId"`
	Kind      ReactionKind `gorm:"not null;size:8" json:"kind"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ChatLog is reserved storage; nothing writes to it yet.
type ChatLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"index" json:"userId"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"createdAt"`
}

// All lists every model the schema migration covers.
func All() []any {
	return []any{&Account{}, &Post{}, &Reaction{}, &ChatLog{}}
}
