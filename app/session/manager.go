// Package session signs wallets in: a wallet proves its address with a
// personal message signature and gets an access token back.
package session

import (
	"context"
	"strings"
	"time"

	"lootexchange/app/auth"
	"lootexchange/app/config"
	"lootexchange/app/models"
	"lootexchange/pkg/log"
	"lootexchange/pkg/response"
)

type Manager struct {
	Auth    auth.Service
	Secrets config.Secrets

	Now func() time.Time // defaults to time.Now
}

func (m *Manager) CreateSession(ctx context.Context, session *models.NewSession) (*models.Session, error) {
	log.AddFields(ctx, "session", session)

	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	if err := session.Validate(now, m.Secrets.SessionMaxAge); err != nil {
		return nil, response.NewError(response.CodeUnauthorized, err.Error()).SetInternal(err)
	}

	accessToken := models.NewAccessToken(session.Address)
	encoded, err := m.Auth.IssueAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		Address:     strings.ToLower(session.Address),
		AccessToken: encoded,
		ExpiresAt:   accessToken.ExpiresAt.Unix(),
	}, nil
}
