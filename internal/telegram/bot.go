package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ObiAU/equitynews/internal/history"
	"github.com/ObiAU/equitynews/internal/logger"
	"github.com/ObiAU/equitynews/internal/sources"
	"github.com/ObiAU/equitynews/internal/summary"
)

const messageLimit = 4096

// Researcher is the slice of summary.Service the bot calls.
type Researcher interface {
	Research(ctx context.Context, query string, maxArticles int) (*summary.Report, error)
	ClearAll() summary.ClearResult
}

type Bot struct {
	api        *tgbotapi.BotAPI
	svc        Researcher
	defaultMax int
	sessions   *history.Sessions
	mu         sync.Mutex
	chats      map[int64]*chatLock
}

// chatLock serializes one chat's requests. It is dropped once no update for
// the chat is pending.
type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewBot connects to the Bot API. Chat histories live in sessions keyed by
// chat, so idle chats are pruned along with idle web sessions.
func NewBot(token string, svc Researcher, sessions *history.Sessions, defaultMax int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))

	return &Bot{
		api:        api,
		svc:        svc,
		defaultMax: defaultMax,
		sessions:   sessions,
		chats:      make(map[int64]*chatLock),
	}, nil
}

// Start polls for updates until ctx is cancelled. Chats are served
// concurrently; each chat is served one request at a time.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	var wg sync.WaitGroup
	for update := range updates {
		if update.Message == nil {
			continue
		}
		wg.Add(1)
		go func(update tgbotapi.Update) {
			defer wg.Done()
			unlock := b.lockChat(update.Message.Chat.ID)
			defer unlock()
			b.handleUpdate(ctx, update)
		}(update)
	}
	wg.Wait()
	return nil
}

func (b *Bot) lockChat(chatID int64) func() {
	b.mu.Lock()
	l, ok := b.chats[chatID]
	if !ok {
		l = &chatLock{}
		b.chats[chatID] = l
	}
	l.refs++
	b.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		b.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(b.chats, chatID)
		}
		b.mu.Unlock()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch cmd := parseCommand(text); cmd.name {
	case "start", "help":
		b.sendMessage(chatID, helpText)
	case "history":
		b.handleHistory(chatID)
	case "clear":
		result := b.svc.ClearAll()
		b.sendMessage(chatID, "Caches cleared: "+result.String()+".")
	case "news", "":
		b.handleQuery(ctx, chatID, cmd.args)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help for available commands.")
	}
}

func (b *Bot) handleQuery(ctx context.Context, chatID int64, args string) {
	query, maxArticles := parseQuery(args, b.defaultMax)

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		logger.Debug("failed to send typing action", zap.Error(err))
	}

	report, err := b.svc.Research(ctx, query, maxArticles)
	if err != nil {
		b.sendMessage(chatID, summary.UserMessage(err))
		return
	}

	b.chatHistory(chatID).Add(query, report.Summary)
	for _, chunk := range splitMessage(formatReport(report), messageLimit) {
		b.sendMessage(chatID, chunk)
	}
}

func (b *Bot) handleHistory(chatID int64) {
	entries := b.chatHistory(chatID).Recent(history.DisplayLimit)
	if len(entries) == 0 {
		b.sendMessage(chatID, "No queries yet. Send a company name, sector or event.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Recent queries:\n")
	for _, e := range entries {
		sb.WriteString("\n")
		sb.WriteString(e.Query)
		sb.WriteString("\n")
		sb.WriteString(e.Preview())
		sb.WriteString("\n")
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) chatHistory(chatID int64) *history.History {
	return b.sessions.Get(sessionID(chatID))
}

func sessionID(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		logger.Warn("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

const helpText = `Equity Research News Bot

Send a company name, sector or event to get a summary of recent news.

Commands:
/news <query> [max] - Summarize news (max articles 5-100)
/history - Your recent queries
/clear - Clear all caches
/help - Show this help

Examples:
Acme Corp
/news semiconductor export controls 40`

type command struct {
	name string
	args string
}

// parseCommand splits "/cmd@bot args" into its parts. Plain text has an empty
// name and the whole text as args.
func parseCommand(text string) command {
	if !strings.HasPrefix(text, "/") {
		return command{args: text}
	}

	name, args, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return command{name: strings.ToLower(name), args: strings.TrimSpace(args)}
}

// parseQuery treats a trailing integer as the article count, clamped to the
// allowed range. The query text itself is kept as typed.
func parseQuery(args string, defaultMax int) (string, int) {
	maxArticles := defaultMax
	if i := strings.LastIndexByte(args, ' '); i >= 0 {
		if n, err := strconv.Atoi(args[i+1:]); err == nil {
			maxArticles = n
			args = strings.TrimRight(args[:i], " ")
		}
	}
	return args, sources.ClampArticles(maxArticles)
}

func formatReport(r *summary.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d articles)\n\n", r.Query, len(r.Articles))
	if r.CostWarning {
		fmt.Fprintf(&sb, "Large token estimate (~%d). Consider lowering max articles.\n\n", r.TokenEstimate)
	}
	sb.WriteString(r.Summary)
	return sb.String()
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a UTF-8 sequence.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
