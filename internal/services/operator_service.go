package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/models"
	"github.com/travelsuite/bus-booking-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails. The same error covers
// unknown usernames and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid username or password")

// OperatorService handles counter operator authentication
type OperatorService struct {
	operators OperatorStore
	tokens    *jwt.Service
	logger    *logrus.Logger
}

// NewOperatorService creates a new OperatorService
func NewOperatorService(operators OperatorStore, tokens *jwt.Service, logger *logrus.Logger) *OperatorService {
	return &OperatorService{
		operators: operators,
		tokens:    tokens,
		logger:    logger,
	}
}

// Login authenticates an operator and issues an access token
func (s *OperatorService) Login(req *models.OperatorLoginRequest) (*models.OperatorLoginResponse, error) {
	operator, err := s.operators.GetByUsername(req.Username)
	if err != nil {
		s.logger.WithField("username", req.Username).Warn("Login attempt for unknown operator")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("username", req.Username).Warn("Login attempt with wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateToken(operator.ID, operator.Username)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"operator_id": operator.ID,
		"username":    operator.Username,
	}).Info("Operator logged in")

	return &models.OperatorLoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Operator:  operator,
	}, nil
}

// HashPassword produces a bcrypt hash for operator provisioning
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
