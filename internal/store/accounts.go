package store

import (
	"context"

	"github.com/sujalbistaa/chronicles/internal/models"
)

// CreateAccount inserts account. The unique indexes on reg_no and email make
// a concurrent duplicate fail here with ErrDuplicateKey.
func (s *Gorm) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *Gorm) FindAccountByRegNo(ctx context.Context, regNo string) (models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "reg_no = ?", regNo).Error; err != nil {
		return models.Account{}, notFound(err)
	}
	return account, nil
}

func (s *Gorm) FindAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "email = ?", email).Error; err != nil {
		return models.Account{}, notFound(err)
	}
	return account, nil
}
