package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"hangoutapp/internal/model"
	"hangoutapp/internal/repository"
	"hangoutapp/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RequestOTPInput struct {
	Phone string `json:"phone" binding:"required"`
	Name  string `json:"name"`
}

type VerifyOTPInput struct {
	Phone   string `json:"phone" binding:"required"`
	OTPCode string `json:"otp_code" binding:"required,len=6"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService interface {
	RequestOTP(input RequestOTPInput) error
	VerifyOTP(input VerifyOTPInput) (*AuthResponse, error)
	GetUser(userID string) (*model.User, error)
}

type authService struct {
	userRepo     repository.UserRepository
	notifService NotificationService
	jwtSecret    string
	jwtExpiry    time.Duration
	otpExpiry    time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	notifService NotificationService,
	jwtSecret string,
	jwtExpiry, otpExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		notifService: notifService,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		otpExpiry:    otpExpiry,
	}
}

// RequestOTP issues a login code for the phone number, creating the user row
// on first contact. Only the bcrypt hash of the code is stored; the plaintext
// goes to the delivery queue and is never kept.
func (s *authService) RequestOTP(input RequestOTPInput) error {
	user, err := s.userRepo.FindByPhone(input.Phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			Name:  input.Name,
			Phone: input.Phone,
		}
		if err := s.userRepo.Create(user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	} else if err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash OTP: %w", err)
	}

	expiresAt := time.Now().Add(s.otpExpiry)
	if err := s.userRepo.UpdateOTP(input.Phone, string(hash), expiresAt); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	return s.notifService.SendOTPIssuedNotification(user.ID, input.Phone, code)
}

// VerifyOTP checks the submitted code against the stored hash and issues a
// JWT on success. The code is single-use: the hash is cleared once verified.
func (s *authService) VerifyOTP(input VerifyOTPInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByPhone(input.Phone)
	if err != nil {
		return nil, errors.New("invalid phone or OTP")
	}

	if user.OTPHash == nil || user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return nil, errors.New("invalid or expired OTP")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.OTPHash), []byte(input.OTPCode)); err != nil {
		return nil, errors.New("invalid or expired OTP")
	}

	if err := s.userRepo.ClearOTP(user.ID); err != nil {
		return nil, fmt.Errorf("failed to clear OTP: %w", err)
	}
	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	token, err := util.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// GetUser loads the authenticated user's record.
func (s *authService) GetUser(userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func generateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
