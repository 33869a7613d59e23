package services

import (
	"context"
	"errors"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/internal/repositories"
	"github.com/KatlegoSeiphemo/careernest/pkg/jwt"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure UserAuthService implements AuthService
var _ AuthService = (*UserAuthService)(nil)

// ErrInvalidCredentials is returned for a bad email/password pair
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when registering an already-used email
var ErrEmailTaken = errors.New("email is already registered")

// UserAuthService handles registration and login
type UserAuthService struct {
	userRepo repositories.UserRepository
	tokens   *jwt.TokenService
}

// NewUserAuthService creates a new UserAuthService
func NewUserAuthService(userRepo repositories.UserRepository, tokens *jwt.TokenService) *UserAuthService {
	return &UserAuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register handles user registration
func (s *UserAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		slog.Error("Failed to check existing user", "error", err, "email", req.Email)
		return nil, errors.New("failed to register user")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = models.RoleClient
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		MSISDN:   req.MSISDN,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		slog.Error("Failed to create user", "error", err, "email", req.Email)
		return nil, errors.New("failed to register user")
	}

	user.Password = ""
	return user, nil
}

// Login handles user login and returns a signed token
func (s *UserAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		slog.Error("Failed to sign token", "error", err, "userId", user.ID.Hex())
		return nil, errors.New("failed to log in")
	}

	user.Password = ""
	return &models.LoginResponse{Token: token, User: user}, nil
}
