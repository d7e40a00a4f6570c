// Package chat handles freeform conversation turns with a bounded
// rolling history per user. No classification or complaint logic
// applies on this path.
package chat

import (
	"context"
	"strconv"
	"strings"

	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/gateway"
	"github.com/techgini/verifybot/internal/models"
	"github.com/techgini/verifybot/internal/storage"
	"go.uber.org/zap"
)

type SessionManager struct {
	gateway gateway.ModelGateway
	store   storage.Store
	audit   *audit.Logger
	logger  *zap.Logger
}

func NewSessionManager(gw gateway.ModelGateway, store storage.Store, auditLog *audit.Logger, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		gateway: gw,
		store:   store,
		audit:   auditLog,
		logger:  logger,
	}
}

// Respond answers one chat message. Successful exchanges are appended
// to the user's history; failed ones (the gateway's marked error
// strings) are shown to the user but not remembered.
func (m *SessionManager) Respond(ctx context.Context, userID int64, username, text string) string {
	history, err := m.store.History(userID)
	if err != nil {
		m.logger.Error("failed to load chat history",
			zap.Error(err),
			zap.Int64("user_id", userID))
		history = nil
	}

	response := m.gateway.Chat(ctx, text, history)

	if !strings.Contains(response, gateway.ErrorMarker) {
		err := m.store.AppendTurns(userID,
			models.Turn{Role: models.RoleUser, Parts: []string{text}},
			models.Turn{Role: models.RoleModel, Parts: []string{response}},
		)
		if err != nil {
			m.logger.Error("failed to save chat history",
				zap.Error(err),
				zap.Int64("user_id", userID))
		}
	}

	m.audit.Event(strconv.FormatInt(userID, 10), username, audit.ActionChatMessage, "")
	return response
}
