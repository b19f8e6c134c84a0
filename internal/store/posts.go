package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/chronicles/internal/models"
)

func (s *Gorm) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *Gorm) GetPost(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return models.Post{}, notFound(err)
	}
	return post, nil
}

func (s *Gorm) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func lockPost(tx *gorm.DB, id string) (models.Post, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
	if err != nil {
		return models.Post{}, notFound(err)
	}
	return post, nil
}

func (s *Gorm) UpdatePost(ctx context.Context, id string, mutate PostMutation) (models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if post, err = lockPost(tx, id); err != nil {
			return err
		}
		if err := mutate(&post); err != nil {
			return err
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (s *Gorm) DeletePost(ctx context.Context, id string, check PostCheck) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if err := check(post); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

type countRow struct {
	PostID string
	Kind   models.ReactionKind
	N      int64
}

func (s *Gorm) ReactionCounts(ctx context.Context, postIDs ...string) (map[string]Counts, error) {
	return reactionCounts(s.db.WithContext(ctx), postIDs...)
}

func reactionCounts(db *gorm.DB, postIDs ...string) (map[string]Counts, error) {
	q := db.Model(&models.Reaction{}).Select("post_id, kind, COUNT(*) AS n").Group("post_id, kind")
	if len(postIDs) > 0 {
		q = q.Where("post_id IN ?", postIDs)
	}

	var rows []countRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]Counts, len(rows))
	for _, row := range rows {
		c := counts[row.PostID]
		switch row.Kind {
		case models.Like:
			c.Likes = row.N
		case models.Dislike:
			c.Dislikes = row.N
		}
		counts[row.PostID] = c
	}
	return counts, nil
}
