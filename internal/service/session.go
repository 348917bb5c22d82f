package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/BloggingApp/writerspace/internal/auth"
	"github.com/BloggingApp/writerspace/internal/config"
	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/metrics"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/BloggingApp/writerspace/internal/repository"
	"github.com/BloggingApp/writerspace/internal/repository/postgres"
	"github.com/BloggingApp/writerspace/internal/repository/redisrepo"
	"github.com/BloggingApp/writerspace/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const userCacheTTL = time.Hour

var ErrFederatedDisabled = auth.ErrFederatedDisabled

// IdentityVerifier checks an ID token from an external provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.Identity, error)
}

type sessionService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	verifier IdentityVerifier
	cfg      config.AuthConfig

	mu        sync.RWMutex
	listeners map[int]func(model.AuthEvent)
	nextID    int
}

func newSessionService(logger *zap.Logger, repo *repository.Repository, verifier IdentityVerifier, cfg config.AuthConfig) Session {
	return &sessionService{
		logger:    logger,
		repo:      repo,
		verifier:  verifier,
		cfg:       cfg,
		listeners: make(map[int]func(model.AuthEvent)),
	}
}

func (s *sessionService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.createPasswordAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.ensureProfile(ctx, model.User{
		ID:          account.ID,
		Email:       account.Email,
		Username:    req.DisplayName,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *sessionService) SignIn(ctx context.Context, req dto.SignInRequest) (*dto.AuthResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.repo.Postgres.Account.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Sugar().Errorf("failed to find account(%s): %s", req.Email, err.Error())
		return nil, ErrInternal
	}
	if account.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	name := emailLocalPart(account.Email)
	user, err := s.ensureProfile(ctx, model.User{
		ID:          account.ID,
		Email:       account.Email,
		Username:    name,
		DisplayName: name,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *sessionService) SignInFederated(ctx context.Context, idToken string) (*dto.AuthResponse, error) {
	if s.verifier == nil {
		return nil, ErrFederatedDisabled
	}
	if err := (dto.FederatedSignInRequest{IDToken: idToken}).Validate(); err != nil {
		return nil, err
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Sugar().Infof("rejected federated id token: %s", err.Error())
		return nil, ErrInvalidToken
	}

	account, err := s.repo.Postgres.Account.FindByProvider(ctx, identity.Provider, identity.Subject)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Sugar().Errorf("failed to find %s account(%s): %s", identity.Provider, identity.Subject, err.Error())
			return nil, ErrInternal
		}

		account, err = s.repo.Postgres.Account.Create(ctx, model.Account{
			ID:              uuid.New(),
			Email:           NormalizeEmail(identity.Email),
			Provider:        identity.Provider,
			ProviderSubject: identity.Subject,
		})
		if err != nil {
			if errors.Is(err, postgres.ErrDuplicate) {
				return nil, ErrEmailTaken
			}
			s.logger.Sugar().Errorf("failed to create %s account(%s): %s", identity.Provider, identity.Subject, err.Error())
			return nil, ErrInternal
		}
	}

	name := identity.Name
	if name == "" {
		name = emailLocalPart(account.Email)
	}
	user, err := s.ensureProfile(ctx, model.User{
		ID:          account.ID,
		Email:       account.Email,
		Username:    name,
		DisplayName: name,
		PhotoURL:    identity.Picture,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *sessionService) SignOut(ctx context.Context, token string) error {
	claims, err := utils.ParseAccessClaims(token, s.cfg.AccessSecret)
	if err != nil {
		return ErrInvalidToken
	}

	if ttl := time.Until(claims.ExpiresAt); ttl > 0 {
		if err := s.repo.Redis.Default.Set(ctx, redisrepo.RevokedTokenKey(claims.JTI), 1, ttl); err != nil {
			s.logger.Sugar().Errorf("failed to revoke token of user(%s): %s", claims.UserID.String(), err.Error())
			return ErrInternal
		}
	}

	user, err := s.findUser(ctx, claims.UserID)
	if err != nil {
		user = &model.User{ID: claims.UserID}
	}
	s.emit(model.AuthEvent{Type: model.AuthSignedOut, User: user})

	return nil
}

func (s *sessionService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	claims, err := utils.ParseAccessClaims(token, s.cfg.AccessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.repo.Redis.Default.Exists(ctx, redisrepo.RevokedTokenKey(claims.JTI))
	if err != nil {
		s.logger.Sugar().Errorf("failed to check token revocation for user(%s): %s", claims.UserID.String(), err.Error())
		return nil, ErrInternal
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.findUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// CreateAdmin creates or promotes the account for email. Only the bootstrap command uses it.
func (s *sessionService) CreateAdmin(ctx context.Context, req dto.SignUpRequest) (*model.User, error) {
	req.Email = NormalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.createPasswordAccount(ctx, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		if account, err = s.repo.Postgres.Account.FindByEmail(ctx, req.Email); err != nil {
			s.logger.Sugar().Errorf("failed to find account(%s): %s", req.Email, err.Error())
			return nil, ErrInternal
		}
	}

	user, err := s.ensureProfile(ctx, model.User{
		ID:          account.ID,
		Email:       account.Email,
		Username:    req.DisplayName,
		DisplayName: req.DisplayName,
		Role:        model.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	if user.Role != model.RoleAdmin {
		if err := s.repo.Postgres.User.UpdateRole(ctx, user.ID, model.RoleAdmin); err != nil {
			s.logger.Sugar().Errorf("failed to promote user(%s): %s", user.ID.String(), err.Error())
			return nil, ErrInternal
		}
		if err := s.repo.Redis.Default.Del(ctx, redisrepo.UserCacheKey(user.ID.String())).Err(); err != nil {
			s.logger.Sugar().Errorf("failed to delete cached user(%s) from redis: %s", user.ID.String(), err.Error())
		}
		user.Role = model.RoleAdmin
	}

	return user, nil
}

func (s *sessionService) OnAuthStateChanged(fn func(model.AuthEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *sessionService) emit(event model.AuthEvent) {
	metrics.AuthEventsTotal.WithLabelValues(string(event.Type)).Inc()

	s.mu.RLock()
	listeners := make([]func(model.AuthEvent), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

func (s *sessionService) createPasswordAccount(ctx context.Context, email, password string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Sugar().Errorf("failed to hash password: %s", err.Error())
		return nil, ErrInternal
	}
	hashString := string(hash)

	account, err := s.repo.Postgres.Account.Create(ctx, model.Account{
		ID:              uuid.New(),
		Email:           email,
		PasswordHash:    &hashString,
		Provider:        model.ProviderPassword,
		ProviderSubject: email,
	})
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		s.logger.Sugar().Errorf("failed to create account(%s): %s", email, err.Error())
		return nil, ErrInternal
	}

	return account, nil
}

// ensureProfile creates the profile on first sign-in. An existing profile wins, so a
// sign-in never changes the stored role.
func (s *sessionService) ensureProfile(ctx context.Context, user model.User) (*model.User, error) {
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	profile, err := s.repo.Postgres.User.CreateIfNotExists(ctx, user)
	if err != nil {
		s.logger.Sugar().Errorf("failed to ensure profile of user(%s): %s", user.ID.String(), err.Error())
		return nil, ErrInternal
	}

	return profile, nil
}

func (s *sessionService) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	cachedUser, err := redisrepo.Get[model.User](s.repo.Redis.Default, ctx, redisrepo.UserCacheKey(id.String()))
	if err == nil && cachedUser != nil {
		return cachedUser, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get user(%s) from redis: %s", id.String(), err.Error())
	}

	user, err := s.repo.Postgres.User.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		s.logger.Sugar().Errorf("failed to get user(%s) from postgres: %s", id.String(), err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.UserCacheKey(id.String()), user, userCacheTTL); err != nil {
		s.logger.Sugar().Errorf("failed to set user(%s) in redis: %s", id.String(), err.Error())
	}

	return user, nil
}

func (s *sessionService) issue(user *model.User) (*dto.AuthResponse, error) {
	token, err := utils.GenerateJWT(utils.AccessClaims{
		UserID:    user.ID,
		Role:      string(user.Role),
		JTI:       uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.AccessTokenTTL),
	}, s.cfg.AccessSecret)
	if err != nil {
		s.logger.Sugar().Errorf("failed to sign token for user(%s): %s", user.ID.String(), err.Error())
		return nil, ErrInternal
	}

	s.emit(model.AuthEvent{Type: model.AuthSignedIn, User: user})

	return &dto.AuthResponse{
		AccessToken: token,
		User:        user,
	}, nil
}

func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
