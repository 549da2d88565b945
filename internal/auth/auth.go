// Package auth issues and verifies API tokens and handles password hashing.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

// Claims is the JWT payload carried by API tokens.
type Claims struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service issues tokens and verifies credentials.
type Service struct {
	secret   []byte
	tokenTTL time.Duration
	minPass  int
}

// NewService creates an auth Service from config.
func NewService(cfg config.AuthConfig) *Service {
	ttl := time.Duration(cfg.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	minPass := cfg.MinPasswordLen
	if minPass <= 0 {
		minPass = 10
	}
	return &Service{
		secret:   []byte(cfg.Secret),
		tokenTTL: ttl,
		minPass:  minPass,
	}
}

// IssueToken signs a token for the user.
func (s *Service) IssueToken(user *model.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// VerifyToken parses and validates a token, returning its claims.
func (s *Service) VerifyToken(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("auth: unexpected signing method %s", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "auth: parse token")
	}
	if !token.Valid {
		return nil, eris.New("auth: invalid token")
	}
	if !claims.Role.Valid() {
		return nil, eris.Errorf("auth: unknown role %q", claims.Role)
	}
	return &claims, nil
}

// HashPassword validates the password against policy and hashes it.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < s.minPass {
		return "", eris.Errorf("auth: password must be at least %d characters", s.minPass)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", eris.Wrap(err, "auth: hash password")
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against the stored hash.
func (s *Service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
