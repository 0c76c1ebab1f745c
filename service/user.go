package service

import (
	"context"

	"github.com/Skryldev/restfull-books/db"
	"github.com/Skryldev/restfull-books/models"
	"github.com/Skryldev/restfull-books/repo"
)

// GatewaySentinelID is the user id whose deletion always fails with a
// KindGateway error, standing in for a failing downstream service.
const GatewaySentinelID int64 = 1000

const (
	msgUserNotFound   = "User not found"
	msgLookupNotFound = "Not Found"
	msgSimulatedError = "Simulated external service error for testing purposes"
)

// UserService implements user CRUD plus full replace and partial merge.
type UserService struct {
	repo repo.UserRepository
}

func NewUserService(r repo.UserRepository) *UserService {
	return &UserService{repo: r}
}

func (s *UserService) Save(ctx context.Context, u *models.User) (*models.User, error) {
	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return nil, Internal("Failed to save user", err)
	}
	return saved, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgLookupNotFound)
	case err != nil:
		return nil, Internal("", err)
	}
	return u, nil
}

// DeleteByID removes the user and returns it as it was before deletion.
// GatewaySentinelID fails before the store is touched.
func (s *UserService) DeleteByID(ctx context.Context, id int64) (*models.User, error) {
	if id == GatewaySentinelID {
		return nil, Gateway(msgSimulatedError)
	}

	u, err := s.repo.FindByID(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgLookupNotFound)
	case err != nil:
		return nil, Internal("Failed to delete user", err)
	}

	err = s.repo.Delete(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgLookupNotFound)
	case err != nil:
		return nil, Internal("Failed to delete user", err)
	}
	return u, nil
}

// Replace overwrites the stored user with u as given. u.ID must exist.
func (s *UserService) Replace(ctx context.Context, u *models.User) (*models.User, error) {
	exists, err := s.repo.ExistsByID(ctx, u.ID)
	if err != nil {
		return nil, Internal("", err)
	}
	if !exists {
		return nil, NotFound(msgUserNotFound)
	}
	return s.Save(ctx, u)
}

// MergePartial applies updates to the stored user and persists the result.
// Nothing is written if any update is rejected.
func (s *UserService) MergePartial(ctx context.Context, id int64, updates []FieldUpdate) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	switch {
	case db.IsNotFound(err):
		return nil, NotFound(msgUserNotFound)
	case err != nil:
		return nil, Internal("", err)
	}

	if err := ApplyUserFields(u, updates); err != nil {
		return nil, err
	}
	return s.Save(ctx, u)
}
