package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/sprint-planner-api/internal/calendar"
	"github.com/yukikurage/sprint-planner-api/internal/constants"
	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/repository"
)

var (
	ErrUsernameRequired       = errors.New("username is required")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrPasswordTooShort       = errors.New("password too short")
	ErrUserNotFound           = errors.New("user not found")
	ErrFailedToHashPassword   = errors.New("failed to hash password")
	ErrFailedToCreateUser     = errors.New("failed to create user")
	ErrFailedToCreateWorkWeek = errors.New("failed to create work week")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo    repository.UserRepository
	hoursPerDay time.Duration
}

// NewAuthService creates a new AuthService. New users get a Monday to Friday
// work week of hoursPerDay.
func NewAuthService(userRepo repository.UserRepository, hoursPerDay time.Duration) *AuthService {
	if hoursPerDay <= 0 {
		hoursPerDay = calendar.DefaultHoursPerDay
	}
	return &AuthService{
		userRepo:    userRepo,
		hoursPerDay: hoursPerDay,
	}
}

// SignupInput represents the required information to create a new user.
// WorkDays and HoursPerDay are optional and default to a Monday to Friday
// week of the configured hours.
type SignupInput struct {
	Username    string
	Password    string
	WorkDays    []time.Weekday
	HoursPerDay time.Duration
}

// Signup creates a new user along with the work week the scheduler plans
// their tasks on.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	days, hours := input.WorkDays, input.HoursPerDay
	if days == nil {
		days = models.DefaultWorkDays
	}
	if hours == 0 {
		hours = s.hoursPerDay
	}
	if err := validateWorkWeek(days, hours); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}
	week := models.NewUserWorkWeek(0, days, hours)

	if err := s.userRepo.CreateWithWorkWeek(user, &week); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateWorkWeek):
			return nil, ErrFailedToCreateWorkWeek
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	user.WorkWeek = &week
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user with their work week.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
