package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/covergrid/pulse/internal/content"
	"github.com/covergrid/pulse/internal/core"
	"go.uber.org/zap"
)

// RangeFetcher fetches a named range from the backing spreadsheet.
type RangeFetcher interface {
	Values(ctx context.Context, rangeName string) ([][]string, error)
}

// Service authenticates dashboard logins against the Users sheet,
// falling back to the configured demo accounts.
type Service struct {
	fetcher    RangeFetcher
	usersRange string
	demo       map[string]string
	tokens     *TokenIssuer
	logger     *zap.Logger
}

// NewService creates a login service. fetcher may be nil when the
// deployment is demo-accounts only.
func NewService(fetcher RangeFetcher, usersRange string, demo map[string]string, tokens *TokenIssuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make(map[string]string, len(demo))
	for email, password := range demo {
		normalized[strings.ToLower(email)] = password
	}
	return &Service{
		fetcher:    fetcher,
		usersRange: usersRange,
		demo:       normalized,
		tokens:     tokens,
		logger:     logger,
	}
}

// Login checks the Users sheet first, then the demo accounts. A sheet
// fetch failure is not a login failure; demo accounts still work.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return core.User{}, "", core.ErrInvalidCredentials
	}

	if user, ok := s.lookupSheetUser(ctx, email); ok {
		if equalSecret(password, user.Password) {
			return s.issue(user)
		}
		return core.User{}, "", core.ErrInvalidCredentials
	}

	if demoPassword, ok := s.demo[email]; ok {
		if equalSecret(password, demoPassword) {
			return s.issue(core.User{
				Email: email,
				Name:  displayName(email),
				Role:  "demo",
			})
		}
	}

	return core.User{}, "", core.ErrInvalidCredentials
}

// Verify validates a session token.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}

func (s *Service) issue(user core.User) (core.User, string, error) {
	token, err := s.tokens.Issue(user, time.Now())
	if err != nil {
		return core.User{}, "", err
	}
	user.Password = ""
	return user, token, nil
}

func (s *Service) lookupSheetUser(ctx context.Context, email string) (core.User, bool) {
	if s.fetcher == nil || s.usersRange == "" {
		return core.User{}, false
	}

	values, err := s.fetcher.Values(ctx, s.usersRange)
	if err != nil {
		// The sheet is advisory; demo accounts still apply.
		s.logger.Warn("users sheet unavailable, checking demo accounts",
			zap.Error(err))
		return core.User{}, false
	}

	for _, user := range content.Users(values) {
		if user.Email == email && user.IsValid() {
			return user, true
		}
	}
	return core.User{}, false
}

// equalSecret compares credentials in constant time.
func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// displayName derives a readable name from the local part of an email.
func displayName(email string) string {
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	if local == "" {
		return email
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
