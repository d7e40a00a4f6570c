// Package analysis runs the content-analysis pipeline: validate the
// request, call the model gateway, classify, capture a complaint on a
// red result, and render the reply.
package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/gateway"
	"github.com/techgini/verifybot/internal/models"
	"github.com/techgini/verifybot/internal/storage"
	"github.com/techgini/verifybot/internal/verdict"
	"go.uber.org/zap"
)

// complaintCTA is appended by the orchestrator (not the formatter)
// whenever the classification is RED.
const complaintCTA = "\n\n*Action:* Use `/complaint` for report text."

type Orchestrator struct {
	gateway gateway.ModelGateway
	store   storage.Store
	audit   *audit.Logger
	logger  *zap.Logger
}

func NewOrchestrator(gw gateway.ModelGateway, store storage.Store, auditLog *audit.Logger, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gw,
		store:   store,
		audit:   auditLog,
		logger:  logger,
	}
}

// Run analyzes one piece of content and returns the final reply text.
// Empty content with no image short-circuits without touching the
// gateway. A store failure on the complaint write degrades to a logged
// error; the analysis reply is still produced.
func (o *Orchestrator) Run(ctx context.Context, userID int64, username, content string, img *gateway.Image) string {
	analysisID := uuid.New().String()

	var v models.Verdict
	if strings.TrimSpace(content) == "" && img == nil {
		v = verdict.NoContent()
	} else {
		v = o.gateway.AnalyzeStructured(ctx, content, img)
	}

	reply := verdict.Format(v)
	if verdict.Classify(v) == models.ClassificationRed {
		complaint := fmt.Sprintf("Content: %s\n\nAI Analysis: %s", content, v.Reason)
		if err := o.store.SetLastComplaint(userID, complaint); err != nil {
			o.logger.Error("failed to save complaint",
				zap.Error(err),
				zap.Int64("user_id", userID),
				zap.String("analysis_id", analysisID))
		}
		reply += complaintCTA
	}

	o.audit.Event(strconv.FormatInt(userID, 10), username,
		audit.ActionAnalysisSuccess, "Result="+string(v.Result))
	o.logger.Info("analysis complete",
		zap.Int64("user_id", userID),
		zap.String("analysis_id", analysisID),
		zap.String("result", string(v.Result)),
		zap.Int("confidence", v.Confidence))

	return reply
}
