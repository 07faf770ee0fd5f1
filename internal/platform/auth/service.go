package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleStaff    = "staff"
	RoleGuardian = "guardian"
	RoleAdmin    = "admin"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidRole   = errors.New("invalid role")
	ErrAuthFailed    = errors.New("authentication failed")
)

type AuthService interface {
	Login(ctx context.Context, id, password string) (string, error)
	Register(ctx context.Context, id, password, role string) error
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl, now: time.Now}
}

var _ AuthService = (*Service)(nil)

func ValidRole(role string) bool {
	switch role {
	case RoleStaff, RoleGuardian, RoleAdmin:
		return true
	}
	return false
}

func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if acct == nil || acct.IsDisabled {
		return "", ErrAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}
	return s.IssueToken(acct.ID, acct.Role)
}

// IssueToken: sub=アカウントID（職員IDとして記録に残る）, role=staff|guardian|admin
func (s *Service) IssueToken(sub, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  s.now().Add(s.ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, id, password, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exists != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.store.Create(ctx, &Account{
		ID:           id,
		PasswordHash: string(hash),
		Role:         role,
		IsDisabled:   false,
	})
}

// EnsureAccount は起動時の初期管理者作成用。既にあれば何もしない。
func (s *Service) EnsureAccount(ctx context.Context, id, password, role string) error {
	if id == "" || password == "" {
		return nil
	}
	err := s.Register(ctx, id, password, role)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}
