package blog

import (
	"context"
	"errors"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/models"
	"github.com/sujalbistaa/chronicles/internal/store"
)

var alreadyReacted = map[models.ReactionKind]string{
	models.Like:    "Already liked",
	models.Dislike: "Already disliked",
}

// Like adds userID to the post's likers, moving it out of the dislikers if
// needed. Liking twice is a conflict, not a no-op success.
func (s *Service) Like(ctx context.Context, postID, userID string) (store.Counts, error) {
	return s.react(ctx, postID, userID, models.Like)
}

// Dislike mirrors Like.
func (s *Service) Dislike(ctx context.Context, postID, userID string) (store.Counts, error) {
	return s.react(ctx, postID, userID, models.Dislike)
}

func (s *Service) react(ctx context.Context, postID, userID string, kind models.ReactionKind) (store.Counts, error) {
	if userID == "" {
		return store.Counts{}, apperr.Validation("Missing user_id")
	}

	outcome := "added"
	counts, err := s.store.React(ctx, postID, userID, func(current models.ReactionKind) (models.ReactionKind, error) {
		switch current {
		case kind:
			return current, apperr.Conflict(alreadyReacted[kind])
		case "":
			outcome = "added"
		default:
			outcome = "switched"
		}
		return kind, nil
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		err = apperr.Conflict(alreadyReacted[kind])
	}
	if err != nil {
		if apperr.Is(err, apperr.TypeConflict) {
			s.metrics.ObserveReaction(string(kind), "conflict")
		}
		return store.Counts{}, storageError("failed to record reaction", err)
	}

	s.metrics.ObserveReaction(string(kind), outcome)
	s.notifier.Notify(ctx, Event{Type: EventReaction, PostID: postID, Data: ReactionData{ID: postID, Counts: counts}})
	return counts, nil
}
