// Package store persists accounts, posts and reactions. Every
// read-modify-write on a post runs inside a transaction that locks the post
// row, so mutations on the same post are serialised while different posts
// proceed independently.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sujalbistaa/chronicles/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Counts is the size of a post's liker and disliker sets.
type Counts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// PostMutation edits a locked post in place. Returning an error aborts the
// transaction with no change applied.
type PostMutation func(post *models.Post) error

// PostCheck inspects a locked post before it is removed.
type PostCheck func(post models.Post) error

// ReactionTransition receives the user's current reaction on a post ("" when
// there is none) and returns the reaction to store.
type ReactionTransition func(current models.ReactionKind) (models.ReactionKind, error)

type Store interface {
	PostStore
	ReactionStore
	AccountStore
	AnalyticsStore
	Ping(ctx context.Context) error
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, mutate PostMutation) (models.Post, error)
	DeletePost(ctx context.Context, id string, check PostCheck) error
	ReactionCounts(ctx context.Context, postIDs ...string) (map[string]Counts, error)
}

type ReactionStore interface {
	React(ctx context.Context, postID, userID string, transition ReactionTransition) (Counts, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccountByRegNo(ctx context.Context, regNo string) (models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (models.Account, error)
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int64  `json:"count"`
}

type CompanySentiment struct {
	Company     string  `json:"company"`
	AvgCompound float64 `json:"avg_compound"`
}

type Engagement struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Company  string `json:"company,omitempty"`
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
}

type AnalyticsStore interface {
	CompanyCounts(ctx context.Context) ([]CompanyCount, error)
	CompanySentiment(ctx context.Context) ([]CompanySentiment, error)
	Engagement(ctx context.Context) ([]Engagement, error)
	TopLiked(ctx context.Context, limit int) ([]Engagement, error)
	PostTimestamps(ctx context.Context) ([]time.Time, error)
}
