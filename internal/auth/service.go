package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/arkodent/clinic/internal/audit"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// Roles gate what a signed-in user may do with patient records.
const (
	RoleAdmin  = "admin"  // full access, including audit logs
	RoleEditor = "editor" // may create, edit, and delete patients
	RoleViewer = "viewer" // read-only access
)

type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`
}

type Service interface {
	Initialize(ctx context.Context) error
	Register(ctx context.Context, username, email, password string, roles []string) (*User, error)
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

type service struct {
	db          *pgxpool.Pool
	audit       audit.Service
	jwtSecret   []byte
	tokenExpiry time.Duration
}

type ServiceConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

func NewService(db *pgxpool.Pool, auditService audit.Service, config ServiceConfig) Service {
	return &service{
		db:          db,
		audit:       auditService,
		jwtSecret:   []byte(config.JWTSecret),
		tokenExpiry: config.TokenExpiry,
	}
}

// Initialize creates the users table if it does not exist.
func (s *service) Initialize(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(255) UNIQUE NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		roles TEXT[] NOT NULL DEFAULT '{}',
		last_login TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(50) NOT NULL DEFAULT 'active'
	);
	CREATE INDEX IF NOT EXISTS users_email_idx ON users(email);
	`
	_, err := s.db.Exec(ctx, createTableSQL)
	return err
}

func (s *service) Register(ctx context.Context, username, email, password string, roles []string) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Roles:        roles,
		CreatedAt:    time.Now().UTC(),
		Status:       "active",
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, roles, created_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Roles, user.CreatedAt, user.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.AuditEvent{
		EventType:   audit.EventModify,
		UserID:      user.ID,
		Action:      "REGISTER",
		Resource:    "user",
		ResourceID:  user.ID,
		Status:      "success",
		Sensitivity: "HIGH",
	})

	return user, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	var user User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, roles, status
		 FROM users WHERE username = $1`,
		username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Roles, &user.Status)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if user.Status != "active" {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.LogEvent(ctx, &audit.AuditEvent{
			EventType:   audit.EventLogin,
			UserID:      user.ID,
			Action:      "LOGIN",
			Resource:    "user",
			ResourceID:  user.ID,
			Status:      "failure",
			Sensitivity: "HIGH",
		})
		return "", ErrInvalidCredentials
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return "", err
	}

	if _, err := s.db.Exec(ctx,
		"UPDATE users SET last_login = $1 WHERE id = $2",
		time.Now().UTC(), user.ID); err != nil {
		return "", fmt.Errorf("failed to record login: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.AuditEvent{
		EventType:   audit.EventLogin,
		UserID:      user.ID,
		Action:      "LOGIN",
		Resource:    "user",
		ResourceID:  user.ID,
		Status:      "success",
		Sensitivity: "HIGH",
	})

	return token, nil
}

func (s *service) generateToken(user *User) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
