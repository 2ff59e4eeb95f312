package session

import (
	"context"

	"lootexchange/app/models"
)

type Service interface {
	CreateSession(ctx context.Context, session *models.NewSession) (*models.Session, error)
}
