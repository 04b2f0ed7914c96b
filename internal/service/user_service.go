package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"marketplace-service/internal/entity"
	"marketplace-service/internal/repository"
)

const invalidCredentials = "No active account found with the given credentials"

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
}

// TokenBlacklist claims a refresh token id atomically; only the first claim
// for a jti succeeds.
type TokenBlacklist interface {
	Claim(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

// UserService handles registration and the token lifecycle.
type UserService struct {
	repo      UserRepository
	tokens    *TokenIssuer
	blacklist TokenBlacklist
}

func NewUserService(repo UserRepository, tokens *TokenIssuer, blacklist TokenBlacklist) *UserService {
	return &UserService{
		repo:      repo,
		tokens:    tokens,
		blacklist: blacklist,
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	Password2 string
	Role      entity.Role
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if in.Password != in.Password2 {
		return nil, invalid("Passwords do not match.")
	}
	if in.Role == "" {
		in.Role = entity.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, invalid(fmt.Sprintf("\"%s\" is not a valid choice.", in.Role))
	}

	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, invalid("user with this email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, invalid("A user with that username already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, &entity.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Role:         in.Role,
		IsActive:     true,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("A user with these credentials already exists.")
		}
		log.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized(invalidCredentials)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, unauthorized(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, unauthorized(invalidCredentials)
	}

	return s.tokens.IssuePair(user)
}

// Refresh rotates a refresh token: the presented one is blacklisted until
// it would have expired and a new pair is issued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, unauthorized("Token is invalid or expired")
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, unauthorized("Token has wrong type")
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("User not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, unauthorized("User is inactive")
	}

	claimed, err := s.blacklist.Claim(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		log.Error().Err(err).Str("jti", claims.ID).Msg("Error blacklisting refresh token")
		return nil, err
	}
	if !claimed {
		return nil, unauthorized("Token is blacklisted")
	}

	return s.tokens.IssuePair(user)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found.")
		}
		log.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}
	return user, nil
}
