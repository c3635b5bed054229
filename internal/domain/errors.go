package domain

import "errors"

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrProfileRootNotFound = errors.New("profile root not found")
	ErrNoProfiles          = errors.New("no candidate profiles found")
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrLockContention      = errors.New("file locked by another process")
	ErrNavigationFailure   = errors.New("navigation failed")
	ErrInteractionFailure  = errors.New("page interaction failed")
	ErrSessionDeath        = errors.New("browser session died")
	ErrUnexpectedFailure   = errors.New("unexpected failure")
)
