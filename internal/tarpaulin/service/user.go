package service

import (
	"context"
	"fmt"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/cryptox"
	"github.com/opencourse/tarpaulin/pkg/idx"
)

type UserService struct {
	Store store.Store
}

// Profile is a user plus the course IDs relevant to their role: taught
// courses for instructors, enrollments for students.
type Profile struct {
	User      domain.User
	CourseIDs []string
}

// CreateUser registers a new account. Student accounts are open; creating
// an admin or instructor account requires an authenticated admin actor
// (actor may be nil for anonymous callers).
func (s *UserService) CreateUser(ctx context.Context, actor *domain.Identity, name, email, password string, role domain.Role) (string, error) {
	if role != domain.RoleStudent {
		if actor == nil || !actor.IsAdmin() {
			return "", ErrWrongRole
		}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("user: hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

// GetProfile fetches a user together with their course links.
func (s *UserService) GetProfile(ctx context.Context, userID string) (Profile, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{User: user}

	switch user.Role {
	case domain.RoleInstructor:
		p.CourseIDs, err = s.Store.Users().CourseIDsTaught(ctx, userID)
	case domain.RoleStudent:
		p.CourseIDs, err = s.Store.Users().CourseIDsEnrolled(ctx, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("user: load course links: %w", err)
	}

	return p, nil
}
