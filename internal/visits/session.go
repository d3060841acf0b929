package visits

import (
	"time"

	"github.com/TubeQuest/TQ-Backend/internal/db"
	"github.com/TubeQuest/TQ-Backend/internal/utils"
)

// SessionInfo reads sessions written by the auth service. This backend only
// consumes identity; it never issues or refreshes sessions.
type SessionInfo struct{}

type sessionRow struct {
	UserID    string
	ExpiresAt time.Time
}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session sessionRow

	err := db.DB.Table("app_auth.sessions").
		Select("user_id, expires_at").
		Where("session_id = ?", id).
		Take(&session).Error
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
