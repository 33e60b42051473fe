package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/academica-erp/academica/internal/shared"
)

// MinPasswordLength is the smallest accepted password, enforced on every
// path that sets one.
const MinPasswordLength = 6

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	issuer *Issuer
	store  *RefreshStore
}

// NewService constructs a new Service.
func NewService(repo Repository, issuer *Issuer, store *RefreshStore) *Service {
	return &Service{repo: repo, issuer: issuer, store: store}
}

// Login validates email/password credentials and mints a token pair.
// Unknown email, wrong password and deactivated accounts are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if appErr := shared.AsError(err); appErr.Kind != shared.KindNotFound {
			return nil, appErr
		}
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.mintPair(ctx, user)
}

// Refresh exchanges a refresh credential for a fresh token pair, rotating
// the stored refresh JTI. A rotated-out credential fails even if its
// embedded expiry has not passed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNoRefreshToken) {
			return nil, shared.Unauthenticated("invalid or expired token")
		}
		return nil, shared.Upstream(err)
	}
	if stored != claims.ID {
		// Stale credential: a later login or refresh already rotated it out.
		return nil, shared.Unauthenticated("invalid or expired token")
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if appErr := shared.AsError(err); appErr.Kind != shared.KindNotFound {
			return nil, appErr
		}
		return nil, shared.Unauthenticated("invalid or expired token")
	}
	if !user.IsActive {
		return nil, shared.Forbidden("account deactivated")
	}
	return s.mintPair(ctx, user)
}

// Logout revokes the user's refresh credential.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return shared.Upstream(err)
	}
	return nil
}

// ChangePassword verifies the current password, stores the new hash and
// rotates the refresh credential so old sessions cannot renew.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < MinPasswordLength {
		return shared.ValidationError("password must be at least %d characters", MinPasswordLength)
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if appErr := shared.AsError(err); appErr.Kind != shared.KindNotFound {
			return appErr
		}
		return shared.Unauthenticated("invalid or expired token")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return shared.Forbidden("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return shared.Upstream(err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return shared.Upstream(err)
	}
	return s.Logout(ctx, userID)
}

func (s *Service) mintPair(ctx context.Context, user *User) (*TokenPair, error) {
	access, _, err := s.issuer.Sign(user, TokenTypeAccess)
	if err != nil {
		return nil, shared.Upstream(err)
	}
	refresh, jti, err := s.issuer.Sign(user, TokenTypeRefresh)
	if err != nil {
		return nil, shared.Upstream(err)
	}
	if err := s.store.Save(ctx, user.ID, jti, s.issuer.RefreshTTL()); err != nil {
		return nil, shared.Upstream(err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}
