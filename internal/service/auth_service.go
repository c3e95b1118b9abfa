package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/qrac-app/draw-chat/internal/models"
	"github.com/qrac-app/draw-chat/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	profileRepo repository.ProfileRepositoryInterface
}

func NewAuthService(profileRepo repository.ProfileRepositoryInterface) *AuthService {
	return &AuthService{profileRepo: profileRepo}
}

type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string                 `json:"token"`
	Profile models.ProfileResponse `json:"profile"`
}

// Register creates the profile on first signup; its ID becomes the
// verified subject in issued tokens.
func (s *AuthService) Register(input RegisterInput) (*AuthResponse, error) {
	if _, err := s.profileRepo.FindByEmail(input.Email); err == nil {
		return nil, errors.New("email already exists")
	}
	if _, err := s.profileRepo.FindByUsername(input.Username); err == nil {
		return nil, errors.New("username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
	}
	if profile.DisplayName == "" {
		profile.DisplayName = input.Username
	}

	if err := s.profileRepo.Create(profile); err != nil {
		return nil, err
	}

	token, err := s.generateToken(profile)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:   token,
		Profile: profile.ToResponse(),
	}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResponse, error) {
	profile, err := s.profileRepo.FindByEmail(input.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	token, err := s.generateToken(profile)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token:   token,
		Profile: profile.ToResponse(),
	}, nil
}

func (s *AuthService) generateToken(profile *models.Profile) (string, error) {
	claims := jwt.MapClaims{
		"profile_id": profile.ID,
		"email":      profile.Email,
		"exp":        time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
