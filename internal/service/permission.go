package service

import "github.com/google/uuid"

type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// IsOwnerOrReadOnly lets anyone read and only the owner write.
func IsOwnerOrReadOnly(action Action, callerID, ownerID uuid.UUID) bool {
	if action == ActionRead {
		return true
	}
	return callerID == ownerID
}

func authorize(action Action, callerID, ownerID uuid.UUID) error {
	if !IsOwnerOrReadOnly(action, callerID, ownerID) {
		return ErrForbidden
	}
	return nil
}
