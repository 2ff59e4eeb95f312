package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"

	"lootexchange/app/models"
	"lootexchange/pkg/log"
	"lootexchange/pkg/response"
	"lootexchange/pkg/web"
)

type Manager struct {
	JWTAuth *jwtauth.JWTAuth
}

func (m *Manager) GetJWTVerifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(m.JWTAuth)
}

func (m *Manager) GetJWTAuthenticator() func(http.Handler) http.Handler {
	return Authenticator
}

func (m *Manager) IssueAccessToken(ctx context.Context, token *models.AccessToken) (string, error) {
	log.AddFields(ctx, "issue token for", token.Wallet)

	return token.Encode(m.JWTAuth)
}

func Authenticator(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())

		if err != nil {
			web.RenderError(w, r, response.NewError(response.CodeUnauthorized, err.Error()))
			return
		}

		if token == nil || !token.Valid {
			web.RenderError(
				w, r, response.NewError(response.CodeUnauthorized, http.StatusText(http.StatusUnauthorized)),
			)
			return
		}

		// token is authenticated, pass it through
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// CurrentUser returns the wallet of a verified token, or an empty string
// for anonymous requests and invalid tokens.
func CurrentUser(ctx context.Context) string {
	token, _, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil || !token.Valid {
		return ""
	}
	accessToken, err := models.AccessTokenFromContext(ctx)
	if err != nil {
		return ""
	}
	return accessToken.Wallet
}
