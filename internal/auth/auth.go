// Package auth signs users up and in against the user store and issues the
// HS256 tokens the middleware verifies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/eventshots/internal/apperr"
	"github.com/farellandr/eventshots/internal/models"
	"github.com/farellandr/eventshots/internal/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type Provider struct {
	users  store.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewProvider(users store.UserStore, secret string, ttl time.Duration) *Provider {
	return &Provider{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password required.")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("Invalid email address.")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least %d characters.", minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Store("Failed to hash the password.", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashedPassword),
		FullName: strings.TrimSpace(fullName),
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists.", err)
		}
		return nil, apperr.Store("Failed to create user.", err)
	}

	return p.newSession(user)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password required.")
	}

	user, err := p.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials.")
		}
		return nil, apperr.Store("Error retrieving user.", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials.")
	}

	return p.newSession(user)
}

// CurrentUser resolves a token to the user it was issued for.
func (p *Provider) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	userID, err := p.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := p.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("User no longer exists.")
		}
		return nil, apperr.Store("Error retrieving user.", err)
	}
	return user, nil
}

func (p *Provider) newSession(user *models.User) (*Session, error) {
	token, err := p.IssueToken(user)
	if err != nil {
		return nil, apperr.Store("Failed to generate token.", err)
	}
	return &Session{User: user, Token: token}, nil
}

func (p *Provider) TTL() time.Duration {
	return p.ttl
}

func (p *Provider) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"exp":     p.now().Add(p.ttl).Unix(),
	})
	return token.SignedString(p.secret)
}

func (p *Provider) ParseToken(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, apperr.Unauthorized("Authentication required.")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !token.Valid {
		return uuid.Nil, apperr.Unauthorized("Invalid or expired token.")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("Invalid token claims.")
	}
	raw, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("Invalid token claims.")
	}
	return userID, nil
}
