package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/techgini/verifybot/internal/analysis"
	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/chat"
	"github.com/techgini/verifybot/internal/gateway"
	"github.com/techgini/verifybot/internal/storage"
	"go.uber.org/zap"
)

type Bot struct {
	api          *tgbotapi.BotAPI
	gateway      gateway.ModelGateway
	orchestrator *analysis.Orchestrator
	sessions     *chat.SessionManager
	store        storage.Store
	audit        *audit.Logger
	logger       *zap.Logger
	httpClient   *http.Client
}

func New(token string, gw gateway.ModelGateway, orchestrator *analysis.Orchestrator, sessions *chat.SessionManager, store storage.Store, auditLog *audit.Logger, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:          api,
		gateway:      gw,
		orchestrator: orchestrator,
		sessions:     sessions,
		store:        store,
		audit:        auditLog,
		logger:       logger,
		httpClient:   &http.Client{},
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	ctx := context.Background()

	// Photos route on their caption, not on command entities.
	if len(message.Photo) > 0 {
		b.handlePhoto(ctx, message)
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if message.Text != "" {
		b.handleChat(ctx, message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "help":
		b.handleWelcome(message)
	case "search":
		b.runAnalysis(ctx, message, message.CommandArguments(), nil)
	case "complaint":
		b.handleComplaint(message)
	default:
		b.sendSafeReply(message, "Unknown command. Use /help to see available commands.", "")
	}
}

func (b *Bot) handleWelcome(message *tgbotapi.Message) {
	welcome := "👋 Hello! I'm your AI analyzer.\n\n" +
		"**How to use me:**\n" +
		"1.  💬 **Chat:** Talk to me normally.\n" +
		"2.  🔎 **Structured Analysis:** Use `/search <text>` OR send a photo with `/search` in the caption.\n" +
		"3.  🖼️ **Descriptive Analysis:** Send a photo *without* a command to get a description.\n" +
		"4.  📝 **Report:** Use `/complaint` after a 'Red Flag' result."

	b.sendSafeReply(message, welcome, tgbotapi.ModeMarkdown)
	id, name := actor(message)
	b.audit.Event(id, name, audit.ActionCommandStart, "")
}

func (b *Bot) handleComplaint(message *tgbotapi.Message) {
	complaint, ok, err := b.store.LastComplaint(message.From.ID)
	if err != nil {
		b.logger.Error("failed to load complaint",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
	}

	if ok {
		text := fmt.Sprintf("📝 **Complaint Text:**\n\n`%s`\n\n_Copy this to report._", complaint)
		b.sendSafeReply(message, text, tgbotapi.ModeMarkdown)
	} else {
		b.sendSafeReply(message, "No 'Red Flag' text found. Run `/search` first.", "")
	}

	id, name := actor(message)
	b.audit.Event(id, name, audit.ActionCommandComplaint, "")
}

func (b *Bot) handleChat(ctx context.Context, message *tgbotapi.Message) {
	_, name := actor(message)
	response := b.sessions.Respond(ctx, message.From.ID, name, message.Text)
	b.sendSafeReply(message, response, "")
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	id, name := actor(message)
	caption := message.Caption

	if query, ok := splitSearchCaption(caption); ok {
		img, err := b.downloadPhoto(ctx, message)
		if err != nil {
			b.logger.Error("failed to download photo",
				zap.Error(err),
				zap.Int64("user_id", message.From.ID))
			b.audit.Event(id, name, audit.ActionError, "Photo search failed: "+err.Error())
			b.sendSafeReply(message, "❌ Error processing your image search request.", "")
			return
		}
		b.runAnalysis(ctx, message, query, img)
		return
	}

	thinking, err := b.replyTo(message, "🖼️ Analyzing image for a description...")
	if err != nil {
		return
	}

	img, err := b.downloadPhoto(ctx, message)
	if err != nil {
		b.logger.Error("failed to download photo",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.audit.Event(id, name, audit.ActionError, "Photo description failed: "+err.Error())
		b.editMessage(thinking, "❌ Error describing the image.", "")
		return
	}

	description := b.gateway.DescribeImage(ctx, img, caption)
	b.editMessage(thinking, description, tgbotapi.ModeMarkdown)
	b.audit.Event(id, name, audit.ActionImageDescriptionSuccess, "")
}

// runAnalysis sends the working placeholder, runs the pipeline, and
// edits the placeholder in place. Exactly two outbound messages per
// request, placeholder included.
func (b *Bot) runAnalysis(ctx context.Context, message *tgbotapi.Message, content string, img *gateway.Image) {
	id, name := actor(message)

	thinking, err := b.replyTo(message, "🔎 Analyzing content...")
	if err != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("analysis crashed",
				zap.Any("panic", r),
				zap.Int64("user_id", message.From.ID))
			b.audit.Event(id, name, audit.ActionError, fmt.Sprintf("Analysis loop crash: %v", r))
			b.editMessage(thinking, "❌ Error during analysis.", "")
		}
	}()

	reply := b.orchestrator.Run(ctx, message.From.ID, name, content, img)
	b.editMessage(thinking, reply, tgbotapi.ModeMarkdown)
}

func (b *Bot) downloadPhoto(ctx context.Context, message *tgbotapi.Message) (*gateway.Image, error) {
	// Sizes are ordered smallest to largest; take the largest.
	fileID := message.Photo[len(message.Photo)-1].FileID

	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo download HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}

	// Telegram re-encodes photo-type attachments as JPEG.
	return &gateway.Image{Data: data, MimeType: "image/jpeg"}, nil
}

func (b *Bot) replyTo(message *tgbotapi.Message, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID

	sent, err := b.api.Send(msg)
	if err != nil {
		id, name := actor(message)
		b.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.audit.Event(id, name, audit.ActionSendFail, "Failed to send: "+err.Error())
	}
	return sent, err
}

func (b *Bot) sendSafeReply(message *tgbotapi.Message, text, parseMode string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	msg.ParseMode = parseMode

	if _, err := b.api.Send(msg); err != nil {
		id, name := actor(message)
		b.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.audit.Event(id, name, audit.ActionSendFail, "Failed to send: "+err.Error())
	}
}

func (b *Bot) editMessage(sent tgbotapi.Message, text, parseMode string) {
	edit := tgbotapi.NewEditMessageText(sent.Chat.ID, sent.MessageID, text)
	edit.ParseMode = parseMode

	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message",
			zap.Error(err),
			zap.Int64("chat_id", sent.Chat.ID))
		b.audit.System(audit.ActionSendFail, "Failed to edit: "+err.Error())
	}
}

// splitSearchCaption reports whether a photo caption invokes /search,
// returning the text after the command.
func splitSearchCaption(caption string) (string, bool) {
	trimmed := strings.TrimSpace(caption)
	if !strings.HasPrefix(strings.ToLower(trimmed), "/search") {
		return "", false
	}
	rest := trimmed[len("/search"):]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func actor(message *tgbotapi.Message) (id, username string) {
	return strconv.FormatInt(message.From.ID, 10), message.From.UserName
}
