// Package account registers users and checks their credentials.
//
// The coordinator role cannot be reached through Register; coordinators are
// provisioned by an administrator through ProvisionCoordinator.
package account

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/models"
	"github.com/sujalbistaa/chronicles/internal/permission"
	"github.com/sujalbistaa/chronicles/internal/store"
)

const (
	YearJunior = "1-2"
	YearSenior = "3-4"
	YearStaff  = "staff"

	yearCoordinator = "coordinator"
)

type Directory struct {
	store store.AccountStore
	cost  int
}

type Option func(*Directory)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(d *Directory) { d.cost = cost }
}

func NewDirectory(st store.AccountStore, opts ...Option) *Directory {
	d := &Directory{store: st, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type RegisterInput struct {
	Name     string
	Year     string
	Password string
	RegNo    string
	Email    string
	LinkedIn string
}

type LoginInput struct {
	RegNo    string
	Email    string
	Password string
}

type LoginResult struct {
	Role permission.Role
	Name string
}

func ptr(s string) *string {
	return &s
}

// Register maps the academic year onto a role, enforces the identity key
// that role uses and stores the account with a bcrypt password hash.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (permission.Role, error) {
	if in.Name == "" || in.Year == "" || in.Password == "" {
		return permission.RoleUnknown, apperr.Validation("Missing required fields")
	}

	account := models.Account{Name: in.Name, Year: in.Year}
	var role permission.Role

	switch in.Year {
	case YearJunior:
		role = permission.RoleJunior
		if in.RegNo == "" {
			return permission.RoleUnknown, apperr.Validation("Registration number required")
		}
		account.RegNo = ptr(in.RegNo)
	case YearSenior:
		role = permission.RoleSenior
		if in.RegNo == "" {
			return permission.RoleUnknown, apperr.Validation("Registration number required")
		}
		if in.LinkedIn == "" {
			return permission.RoleUnknown, apperr.Validation("LinkedIn profile required for 3rd/4th year")
		}
		account.RegNo = ptr(in.RegNo)
		account.LinkedIn = ptr(in.LinkedIn)
	case YearStaff:
		role = permission.RoleStaff
		if in.Email == "" {
			return permission.RoleUnknown, apperr.Validation("Email required for staff")
		}
		account.Email = ptr(in.Email)
	default:
		return permission.RoleUnknown, apperr.Validation("Invalid year value")
	}
	account.Role = role.String()

	if err := d.create(ctx, &account, in.Password); err != nil {
		return permission.RoleUnknown, err
	}

	slog.Info("Account registered", "role", account.Role, "year", account.Year)
	return role, nil
}

// ProvisionCoordinator creates a coordinator account keyed by email. It is an
// administrative operation and is never reachable through Register.
func (d *Directory) ProvisionCoordinator(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return apperr.Validation("Missing required fields")
	}
	account := models.Account{
		Name:  name,
		Email: ptr(email),
		Year:  yearCoordinator,
		Role:  permission.RoleCoordinator.String(),
	}
	if err := d.create(ctx, &account, password); err != nil {
		return err
	}

	slog.Warn("Coordinator provisioned", "account_id", account.ID)
	return nil
}

func duplicateMessage(account *models.Account) string {
	if account.Email != nil {
		return "Email already registered"
	}
	return "Registration number already registered"
}

// create checks for an existing identity key, hashes the password and
// inserts. The unique indexes catch a concurrent registration that slips past
// the lookup.
func (d *Directory) create(ctx context.Context, account *models.Account, password string) error {
	var err error
	if account.Email != nil {
		_, err = d.store.FindAccountByEmail(ctx, *account.Email)
	} else {
		_, err = d.store.FindAccountByRegNo(ctx, *account.RegNo)
	}
	switch {
	case err == nil:
		return apperr.Conflict(duplicateMessage(account))
	case !errors.Is(err, store.ErrNotFound):
		return apperr.Unavailable("failed to check existing account", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	account.Password = string(hash)

	if err := d.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return apperr.Conflict(duplicateMessage(account))
		}
		return apperr.Unavailable("failed to save account", err)
	}
	return nil
}

// Login looks the account up by email, falling back to registration number,
// and verifies the password against the stored hash.
func (d *Directory) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if in.Password == "" {
		return LoginResult{}, apperr.Validation("Password required")
	}

	var (
		account models.Account
		err     error
	)
	switch {
	case in.Email != "":
		account, err = d.store.FindAccountByEmail(ctx, in.Email)
	case in.RegNo != "":
		account, err = d.store.FindAccountByRegNo(ctx, in.RegNo)
	default:
		return LoginResult{}, apperr.Validation("Invalid login data")
	}
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return LoginResult{}, apperr.Unavailable("failed to load account", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(in.Password)); err != nil {
		return LoginResult{}, apperr.Unauthorized("Incorrect password")
	}

	role, err := permission.ParseRole(account.Role)
	if err != nil {
		return LoginResult{}, apperr.Internal("stored account has an invalid role", err)
	}
	return LoginResult{Role: role, Name: account.Name}, nil
}
