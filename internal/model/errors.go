package model

import "errors"

// Common errors used across the application
var (
	// Room lookup errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInvalidRoomID     = errors.New("invalid room id")

	// State machine errors
	ErrInvalidState       = errors.New("operation not allowed in current room state")
	ErrEmptyRoom          = errors.New("room has too few players")
	ErrInvalidPlayerIndex = errors.New("player index out of range")
	ErrVersionConflict    = errors.New("room version does not match")
	ErrNotCreator         = errors.New("only the room creator can perform this action")

	// Identity errors
	ErrMissingFingerprint = errors.New("user fingerprint is required")

	// Storage or randomness failures
	ErrInternal = errors.New("internal failure")
)
