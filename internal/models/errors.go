package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrOnCooldown            = errors.New("action on cooldown")
	ErrValidation            = errors.New("validation failure")
	ErrStoreUnavailable      = errors.New("connection error")
	ErrPlatform              = errors.New("platform error")
	ErrUnauthenticated       = errors.New("unable to resolve current user")
	ErrUnknownAction         = errors.New("unknown action type")
	ErrUnknownTemplate       = errors.New("unknown chronicle template")
	ErrConflict              = errors.New("concurrent update conflict")
)

// CooldownError reports how long the caller has to wait before acting again.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: wait %ds", ErrOnCooldown, int(e.Remaining.Round(time.Second).Seconds()))
}

func (e *CooldownError) Unwrap() error {
	return ErrOnCooldown
}
