package models

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Device represents the device session holding a local API token
type Device struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// StateChange is published after a store mutates its state
type StateChange struct {
	Namespace string    `json:"namespace"`
	Operation string    `json:"operation"`
	ChangedAt time.Time `json:"changed_at"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the `validate` struct tags of v
func Validate(v interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(v)
}
