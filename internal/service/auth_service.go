package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/store"

	"go.uber.org/zap"
)

// ErrInvalidCredentials covers unknown tenant, unknown account and wrong
// password alike; login failures are indistinguishable on purpose.
var ErrInvalidCredentials = errors.New("invalid credentials")

const sessionKeyPrefix = "session:"

// AuthService handles staff login and logout.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, jti string) error
	// SessionAlive reports whether the token's session is still in redis.
	SessionAlive(ctx context.Context, jti string) bool
}

type authService struct {
	tenantsRepo repository.TenantsRepository
	usersRepo   repository.UsersRepository
	tx          repository.TxRunner
	tokens      *TokenManager
	kv          store.KV
	logger      *zap.Logger
}

func NewAuthService(
	tenantsRepo repository.TenantsRepository,
	usersRepo repository.UsersRepository,
	tx repository.TxRunner,
	tokens *TokenManager,
	kv store.KV,
	logger *zap.Logger,
) AuthService {
	return &authService{
		tenantsRepo: tenantsRepo,
		usersRepo:   usersRepo,
		tx:          tx,
		tokens:      tokens,
		kv:          kv,
		logger:      logger,
	}
}

// LoginRequest carries login credentials. The tenant is named by its login
// domain (shop.example.com), or by tenant id for platform admins.
type LoginRequest struct {
	TenantDomain string
	TenantID     string
	Account      string
	Password     string
	IPAddress    string
}

// LoginResponse is the issued session.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Account     string `json:"account"`
	Nickname    string `json:"nickname"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id"`
	TenantName  string `json:"tenant_name"`
}

// Login resolves the tenant, verifies credentials inside that tenant's
// scope and issues a token backed by a redis session.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Account = strings.TrimSpace(req.Account)
	if req.Account == "" || req.Password == "" {
		s.logger.Warn("Login failed: missing credentials", zap.String("ip_address", req.IPAddress))
		return nil, ErrInvalidCredentials
	}

	var tenant *domain.Tenant
	var err error
	switch {
	case req.TenantID != "":
		tenant, err = s.tenantsRepo.GetTenant(ctx, req.TenantID)
	case req.TenantDomain != "":
		tenant, err = s.tenantsRepo.GetTenantByDomain(ctx, strings.ToLower(strings.TrimSpace(req.TenantDomain)))
	default:
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Login failed: unknown tenant",
				zap.String("tenant_domain", req.TenantDomain),
				zap.String("ip_address", req.IPAddress))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if tenant.Status != "active" {
		s.logger.Warn("Login failed: tenant not active",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("status", tenant.Status))
		return nil, ErrInvalidCredentials
	}

	// The user lookup runs inside the tenant's RLS scope like every other
	// query; a matching account in another tenant is invisible here.
	var user *domain.User
	err = s.tx.InTenantTx(ctx, tenant.TenantID, func(ctx context.Context) error {
		u, err := s.usersRepo.GetUserByAccount(ctx, req.Account)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Login failed: unknown account",
				zap.String("tenant_id", tenant.TenantID),
				zap.String("ip_address", req.IPAddress))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	sum := sha256.Sum256([]byte(req.Password))
	if subtle.ConstantTimeCompare(sum[:], user.PasswordHash) != 1 {
		s.logger.Warn("Login failed: bad password",
			zap.String("tenant_id", tenant.TenantID),
			zap.String("user_id", user.UserID),
			zap.String("ip_address", req.IPAddress))
		return nil, ErrInvalidCredentials
	}

	token, jti, err := s.tokens.Issue(user.UserID, tenant.TenantID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+jti, user.UserID, s.tokens.TTL()); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("User logged in",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role))

	return &LoginResponse{
		AccessToken: token,
		UserID:      user.UserID,
		Account:     user.UserAccount,
		Nickname:    user.Nickname,
		Role:        user.Role,
		TenantID:    tenant.TenantID,
		TenantName:  tenant.TenantName,
	}, nil
}

// Logout revokes the session. A second logout is a no-op.
func (s *authService) Logout(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	return s.kv.Del(ctx, sessionKeyPrefix+jti)
}

// SessionAlive reports whether the session key still exists.
func (s *authService) SessionAlive(ctx context.Context, jti string) bool {
	_, err := s.kv.Get(ctx, sessionKeyPrefix+jti)
	return err == nil
}
