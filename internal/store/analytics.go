package store

import (
	"context"
	"time"

	"github.com/sujalbistaa/chronicles/internal/models"
)

const engagementSelect = `p.id AS id, p.title AS title, p.company AS company,
	COALESCE(SUM(CASE WHEN r.kind = 'like' THEN 1 ELSE 0 END), 0) AS likes,
	COALESCE(SUM(CASE WHEN r.kind = 'dislike' THEN 1 ELSE 0 END), 0) AS dislikes`

func (s *Gorm) CompanyCounts(ctx context.Context) ([]CompanyCount, error) {
	var rows []CompanyCount
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("company, COUNT(*) AS count").
		Group("company").
		Order("count DESC, company").
		Scan(&rows).Error
	return rows, err
}

func (s *Gorm) CompanySentiment(ctx context.Context) ([]CompanySentiment, error) {
	var rows []CompanySentiment
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Select("company, AVG(sentiment_compound) AS avg_compound").
		Group("company").
		Order("avg_compound DESC, company").
		Scan(&rows).Error
	return rows, err
}

func (s *Gorm) Engagement(ctx context.Context) ([]Engagement, error) {
	var rows []Engagement
	err := s.db.WithContext(ctx).Table("posts AS p").
		Select(engagementSelect).
		Joins("LEFT JOIN reactions AS r ON r.post_id = p.id").
		Group("p.id, p.title, p.company, p.created_at").
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (s *Gorm) TopLiked(ctx context.Context, limit int) ([]Engagement, error) {
	var rows []Engagement
	err := s.db.WithContext(ctx).Table("posts AS p").
		Select(engagementSelect).
		Joins("LEFT JOIN reactions AS r ON r.post_id = p.id").
		Group("p.id, p.title, p.company, p.created_at").
		Order("likes DESC, p.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *Gorm) PostTimestamps(ctx context.Context) ([]time.Time, error) {
	var stamps []time.Time
	err := s.db.WithContext(ctx).Model(&models.Post{}).Order("created_at").Pluck("created_at", &stamps).Error
	return stamps, err
}
