package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tradefolio/internal/apperr"
	"tradefolio/internal/model"
	"tradefolio/internal/policy"
	"tradefolio/internal/store"
	"tradefolio/internal/types"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

var errInvalidCredentials = apperr.Unauthenticated("invalid credentials")

type Service struct {
	store  store.Store
	issuer string
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, issuer string, secret []byte, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		issuer: issuer,
		secret: secret,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, password string) (model.User, error) {
	return s.create(ctx, email, password, types.RoleUser)
}

func (s *Service) create(ctx context.Context, email, password string, role types.Role) (model.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, apperr.Validation("email", "a valid email is required")
	}
	if len(password) < minPasswordLen {
		return model.User{}, apperr.Validationf("password", "must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, apperr.Infra("hash password", err)
	}
	return s.insert(ctx, model.User{Email: email, PasswordHash: string(hash), Role: role})
}

func (s *Service) insert(ctx context.Context, u model.User) (model.User, error) {
	var out model.User
	err := s.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		taken, err := tx.Users().List(ctx, store.Where(store.Eq("email", u.Email)))
		if err != nil {
			return policy.FromStore("user", err)
		}
		if len(taken) > 0 {
			return apperr.Conflict("email already registered")
		}
		out, err = tx.Users().Insert(ctx, u)
		return policy.FromStore("user", err)
	})
	return out, err
}

// EnsureAdmin creates an ADMIN account from a precomputed bcrypt hash unless
// the email is already registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	email = normalizeEmail(email)
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return apperr.Validation("passwordHash", "not a bcrypt hash")
	}
	_, err := s.insert(ctx, model.User{Email: email, PasswordHash: passwordHash, Role: types.RoleAdmin})
	if apperr.IsConflict(err) {
		return nil
	}
	if err == nil {
		s.logger.Info("admin account created", "email", email)
	}
	return err
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	var u model.User
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		rows, err := tx.Users().List(ctx, store.Where(store.Eq("email", email)))
		if err != nil {
			return policy.FromStore("user", err)
		}
		if len(rows) == 0 {
			return errInvalidCredentials
		}
		u = rows[0]
		return nil
	})
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", errInvalidCredentials
	}
	return s.signToken(u.ID)
}

func (s *Service) signToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", apperr.Infra("sign token", err)
	}
	return signed, nil
}

func (s *Service) ParseToken(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, apperr.Unauthenticated("invalid token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, apperr.Unauthenticated("invalid token")
	}
	if claims.Issuer != s.issuer {
		return 0, apperr.Unauthenticated("invalid issuer")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Unauthenticated("invalid subject")
	}
	return id, nil
}

// Actor loads the caller behind userID. A deleted account no longer
// authenticates.
func (s *Service) Actor(ctx context.Context, userID int64) (policy.Actor, error) {
	var a policy.Actor
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := tx.Users().Get(ctx, userID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !u.IsLive()) {
			return apperr.Unauthenticated("account no longer exists")
		}
		if err != nil {
			return policy.FromStore("user", err)
		}
		a = policy.Actor{UserID: u.ID, Role: u.Role}
		return nil
	})
	return a, err
}

func (s *Service) GetUser(ctx context.Context, actor policy.Actor, id int64) (model.User, error) {
	var u model.User
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		u, err = policy.Fetch(ctx, tx.Users(), id, actor)
		return err
	})
	return u, err
}

// ListUsers is an admin-only listing, so a non-admin gets AuthorizationError
// rather than an empty page.
func (s *Service) ListUsers(ctx context.Context, actor policy.Actor, f store.Filter) ([]model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin role required")
	}
	var out []model.User
	err := s.store.Snapshot(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = policy.List(ctx, tx.Users(), f, actor)
		return err
	})
	return out, err
}
