// Package access resolves who is acting on a reservation.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

// StaffRepository looks up facility staff.
type StaffRepository interface {
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
}

// Service resolves actors for authorization decisions.
type Service struct {
	staff  StaffRepository
	logger zerolog.Logger
}

// NewService creates a new access service.
func NewService(staff StaffRepository, logger zerolog.Logger) *Service {
	return &Service{
		staff:  staff,
		logger: logger.With().Str("component", "access").Logger(),
	}
}

// IsStaff checks if id belongs to an active staff member.
func (s *Service) IsStaff(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	member, err := s.staff.GetStaff(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking staff status: %w", err)
	}
	return member.Active, nil
}

// Actor builds the booking actor for id. Active staff are elevated.
func (s *Service) Actor(ctx context.Context, id string) (booking.Actor, error) {
	elevated, err := s.IsStaff(ctx, id)
	if err != nil {
		return booking.Actor{}, err
	}
	if elevated {
		s.logger.Debug().Str("actor_id", id).Msg("elevated actor")
	}
	return booking.Actor{ID: id, Elevated: elevated}, nil
}
