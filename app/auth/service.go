package auth

import (
	"context"
	"net/http"

	"lootexchange/app/models"
)

type Service interface {
	GetJWTVerifier() func(http.Handler) http.Handler
	GetJWTAuthenticator() func(http.Handler) http.Handler
	IssueAccessToken(ctx context.Context, token *models.AccessToken) (string, error)
}
