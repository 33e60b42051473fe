package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/academica-erp/academica/internal/shared"
)

// Authenticator turns a bearer credential into a request principal.
// The live account row is consulted on every request so a deactivation
// or branch reassignment takes effect without waiting for token expiry.
type Authenticator struct {
	issuer *Issuer
	repo   Repository
	logger *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(issuer *Issuer, repo Repository, logger *slog.Logger) *Authenticator {
	return &Authenticator{issuer: issuer, repo: repo, logger: logger}
}

// Middleware authenticates the request and injects the principal into
// context. No handler logic runs on a failed authentication.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.authenticate(r)
		if err != nil {
			shared.RespondError(w, a.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*shared.Principal, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, shared.Unauthenticated("missing bearer token")
	}
	claims, err := a.issuer.Verify(raw, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	user, err := a.repo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		// A missing row means the credential is stale. Anything else is a
		// repository failure and must not be reported as a bad credential.
		if appErr := shared.AsError(err); appErr.Kind != shared.KindNotFound {
			return nil, appErr
		}
		return nil, shared.Unauthenticated("account no longer exists")
	}
	if !user.IsActive {
		return nil, shared.Forbidden("account deactivated")
	}
	// Role and branch come from the live row, not the token snapshot.
	return &shared.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		BranchID: user.BranchID,
	}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
