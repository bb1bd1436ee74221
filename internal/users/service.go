package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin-app/admin-api/internal/shared"
)

// PasswordHasher hashes plaintext passwords before they reach the store.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Service handles user business logic.
type Service struct {
	repo        Repository
	hasher      PasswordHasher
	defaultRole string
}

// NewService builds Service instance. defaultRole names the role self-registered users receive.
func NewService(repo Repository, hasher PasswordHasher, defaultRole string) *Service {
	if defaultRole == "" {
		defaultRole = shared.RoleViewer
	}
	return &Service{repo: repo, hasher: hasher, defaultRole: defaultRole}
}

// Register creates a self-service account in the default role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	var created User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureEmailFree(ctx, tx, in.Email, ""); err != nil {
			return err
		}
		roleID, err := tx.RoleIDByName(ctx, s.defaultRole)
		if err != nil {
			return err
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		created, err = tx.Create(ctx, NewUser{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
			RoleID:       roleID,
		})
		return err
	})
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// Create provisions an account with an explicit role.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	var created User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := ensureEmailFree(ctx, tx, in.Email, ""); err != nil {
			return err
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		created, err = tx.Create(ctx, NewUser{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
			RoleID:       in.RoleID,
		})
		return err
	})
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindOne(ctx, Filter{ID: id})
}

// Credentials returns the login projection for email.
func (s *Service) Credentials(ctx context.Context, email string) (Credentials, error) {
	return s.repo.FindCredentials(ctx, email)
}

// List returns one page of users with their role.
func (s *Service) List(ctx context.Context, page shared.PageRequest) ([]User, int, error) {
	return s.repo.List(ctx, page)
}

// UpdateProfile applies a partial profile change to user id and returns the stored result.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfilePatch) (User, error) {
	var updated User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if in.Email != nil {
			if err := ensureEmailFree(ctx, tx, *in.Email, id); err != nil {
				return err
			}
		}
		affected, err := tx.UpdateByID(ctx, id, Patch{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email})
		if err != nil {
			return err
		}
		if affected == 0 && (in.FirstName != nil || in.LastName != nil || in.Email != nil) {
			return errUserNotFound
		}
		updated, err = tx.FindOne(ctx, Filter{ID: id})
		return err
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// UpdatePassword replaces the password of user id.
func (s *Service) UpdatePassword(ctx context.Context, id, password string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.FindOne(ctx, Filter{ID: id}); err != nil {
			return err
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		affected, err := tx.UpdateByID(ctx, id, Patch{PasswordHash: &hash})
		if err != nil {
			return err
		}
		if affected == 0 {
			return errUserNotFound
		}
		return nil
	})
}

// EnsureAdmin creates the account when email is unknown, otherwise moves it into roleID.
// It returns true when a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, in CreateInput) (bool, error) {
	created := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := tx.FindOne(ctx, Filter{Email: in.Email})
		switch {
		case err == nil:
			_, err := tx.UpdateMany(ctx, Filter{Email: in.Email}, Patch{RoleID: &in.RoleID})
			return err
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Create(ctx, NewUser{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
			RoleID:       in.RoleID,
		}); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("users: ensure admin: %w", err)
	}
	return created, nil
}

// ensureEmailFree fails with Conflict when email belongs to a user other than exceptID.
func ensureEmailFree(ctx context.Context, tx TxRepository, email, exceptID string) error {
	existing, err := tx.FindOne(ctx, Filter{Email: email})
	switch {
	case err == nil:
		if exceptID != "" && existing.ID == exceptID {
			return nil
		}
		if exceptID != "" {
			return shared.NewError(shared.ErrConflict, "Email is already taken")
		}
		return errUserExists
	case errors.Is(err, shared.ErrNotFound):
		return nil
	default:
		return err
	}
}
