package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"renthunt-state/internal/models"
	"renthunt-state/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnknownDevice is returned for a well-signed token whose device was never registered
var ErrUnknownDevice = errors.New("unknown device")

// SessionService registers devices and issues the API tokens they authenticate with
type SessionService struct {
	storeBase

	jwtSecret string
	ttl       time.Duration

	mu      sync.RWMutex
	devices map[string]models.Device
}

// NewSessionService creates a new session service
func NewSessionService(repo SnapshotStore, jwtSecret string, ttlDays int, opts ...Option) *SessionService {
	if ttlDays <= 0 {
		ttlDays = 365
	}
	return &SessionService{
		storeBase: newStoreBase(repository.NamespaceDevices, repo, opts),
		jwtSecret: jwtSecret,
		ttl:       time.Duration(ttlDays) * 24 * time.Hour,
		devices:   map[string]models.Device{},
	}
}

// Load restores the registered devices
func (s *SessionService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := map[string]models.Device{}
	if _, err := s.restore(ctx, &devices); err != nil {
		return err
	}
	s.devices = devices
	return nil
}

// GenerateJWT signs a token for a device
func (s *SessionService) GenerateJWT(deviceID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"device_id": deviceID,
		"exp":       now.Add(s.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a token and returns the registered device ID
func (s *SessionService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	deviceID, ok := claims["device_id"].(string)
	if !ok {
		return "", fmt.Errorf("device_id not found in token")
	}

	s.mu.RLock()
	_, known := s.devices[deviceID]
	s.mu.RUnlock()
	if !known {
		return "", ErrUnknownDevice
	}

	return deviceID, nil
}

// CreateDevice registers a new device and issues its token
func (s *SessionService) CreateDevice(ctx context.Context) (*models.Device, error) {
	deviceID := uuid.New().String()

	token, err := s.GenerateJWT(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	device := models.Device{
		ID:        deviceID,
		Token:     token,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make(map[string]models.Device, len(s.devices)+1)
	for id, d := range s.devices {
		devices[id] = d
	}
	devices[deviceID] = device
	s.devices = devices

	if err := s.commit(ctx, "create_device", s.devices); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return &device, nil
}

// RevokeDevice forgets a device so its tokens stop validating
func (s *SessionService) RevokeDevice(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[deviceID]; !ok {
		return fmt.Errorf("device %s: %w", deviceID, ErrNotFound)
	}
	devices := make(map[string]models.Device, len(s.devices))
	for id, d := range s.devices {
		if id != deviceID {
			devices[id] = d
		}
	}
	s.devices = devices
	return s.commit(ctx, "revoke_device", s.devices)
}
