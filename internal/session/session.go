package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mediastore/storefront/internal/domain"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrInvalidToken = errors.New("invalid access token")
)

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type userClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

// Session holds the tokens issued by the backend. Signatures are verified by
// the backend; the client only reads the claims.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	parser       *jwt.Parser
}

func New(accessToken, refreshToken string) *Session {
	return &Session{
		accessToken:  accessToken,
		refreshToken: refreshToken,
		parser:       jwt.NewParser(),
	}
}

func (s *Session) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

func (s *Session) Logout() {
	s.SetTokens("", "")
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Valid reports whether an access token is present and not expired at now.
// A token without an exp claim is treated as valid.
func (s *Session) Valid(now time.Time) bool {
	claims, err := s.claims()
	if err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	return exp == nil || now.Before(exp.Time)
}

func (s *Session) CurrentUser() (User, error) {
	claims, err := s.claims()
	if err != nil {
		return User{}, err
	}
	return User{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}

// Prefill copies the user's name and email into empty shipping fields.
func (s *Session) Prefill(form domain.CheckoutForm) domain.CheckoutForm {
	user, err := s.CurrentUser()
	if err != nil {
		return form
	}
	addr := &form.ShippingAddress
	if addr.FirstName == "" {
		addr.FirstName = user.FirstName
	}
	if addr.LastName == "" {
		addr.LastName = user.LastName
	}
	if addr.Email == "" {
		addr.Email = user.Email
	}
	return form
}

func (s *Session) claims() (*userClaims, error) {
	token := s.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}
	claims := &userClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
