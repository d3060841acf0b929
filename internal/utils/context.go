package utils

import (
	"context"
	"time"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

// SessionData is the identity record handed to us by the auth service.
// This backend consumes sessions; it never creates them.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}
