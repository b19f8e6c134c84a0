package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sujalbistaa/chronicles/internal/models"
)

// React applies transition to the user's reaction on postID while the post
// row is locked, then returns the post's updated counts.
func (s *Gorm) React(ctx context.Context, postID, userID string, transition ReactionTransition) (Counts, error) {
	var counts Counts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}

		var existing models.Reaction
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = models.Reaction{PostID: postID, UserID: userID}
		case err != nil:
			return err
		}

		next, err := transition(existing.Kind)
		if err != nil {
			return err
		}

		if existing.ID == 0 {
			existing.Kind = next
			if err := tx.Create(&existing).Error; err != nil {
				if isDuplicate(err) {
					return ErrDuplicateKey
				}
				return err
			}
		} else if existing.Kind != next {
			if err := tx.Model(&existing).Update("kind", next).Error; err != nil {
				return err
			}
		}

		byPost, err := reactionCounts(tx, postID)
		if err != nil {
			return err
		}
		counts = byPost[postID]
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}
