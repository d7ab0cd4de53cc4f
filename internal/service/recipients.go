package service

import (
	"context"
	"strings"

	"weather_relay/internal/models"
	"weather_relay/internal/repository"
)

type RecipientService struct {
	repo repository.RecipientRepo
}

func NewRecipientService(repo repository.RecipientRepo) *RecipientService {
	return &RecipientService{repo: repo}
}

// Remember stores a chat user id if it is new. Reports whether it was new.
func (s *RecipientService) Remember(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	return s.repo.Save(ctx, userID)
}

func (s *RecipientService) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	return s.repo.List(ctx)
}
