// Package bot dispatches Telegram updates: menu commands, FAQ callbacks,
// and free-text questions answered from the resume index.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cta = "You can also ask a question in natural language."

const noAnswerReply = "The resume files hold no direct answer to that. " +
	"Try a more specific question, or reach out directly."

// aboutFallback covers the window where the cache has not been built yet.
const aboutFallback = "This bot is a digital avatar of its owner's resume. " +
	"The About section has not been generated yet — try again in a minute."

// Sender delivers messages and raw API calls; satisfied by
// *clients.TelegramClient.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) error
}

// Answerer answers a free-text question; satisfied by *rag.Answerer.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Reindexer reruns ingestion; satisfied by *ingest.Pipeline.
type Reindexer interface {
	Ingest(ctx context.Context) error
}

// Options are the static bot settings.
type Options struct {
	OwnerID           int64
	DataDir           string
	ResumePath        string
	ResumeOnePagePath string
	LinkedInURL       string
	ContactInfo       string
}

// Bot holds the handler dependencies.
type Bot struct {
	sender   Sender
	cache    *Holder
	answerer Answerer
	reindex  Reindexer
	opts     Options
}

// New constructs a Bot.
func New(sender Sender, cache *Holder, answerer Answerer, reindex Reindexer, opts Options) *Bot {
	return &Bot{sender: sender, cache: cache, answerer: answerer, reindex: reindex, opts: opts}
}

// HandleUpdate routes one Telegram update. Handler errors are returned for
// logging; the caller never escalates them to the transport.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.IsCommand():
		return b.handleCommand(ctx, upd.Message)
	case upd.Message != nil && strings.TrimSpace(upd.Message.Text) != "":
		return b.handleFreeText(ctx, upd.Message)
	default:
		return nil
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		intro := "You are talking to a digital avatar of the owner's resume.\n\n"
		return b.reply(msg.Chat.ID, intro+b.aboutText(), true)
	case "help":
		help := "Commands:\n" +
			"/about — short introduction\n" +
			"/resume — download the resume\n" +
			"/onepage — download the one-page CV\n" +
			"/faq — frequent questions from HR\n" +
			"/linkedin — LinkedIn profile\n" +
			"/reindex — rebuild the resume index (owner only)\n\n" + cta
		return b.reply(msg.Chat.ID, help, true)
	case "about":
		return b.reply(msg.Chat.ID, b.aboutText(), true)
	case "resume":
		return b.sendResume(msg.Chat.ID)
	case "onepage":
		return b.sendResumeOnePage(msg.Chat.ID)
	case "faq":
		return b.sendFAQMenu(msg.Chat.ID)
	case "linkedin":
		if b.opts.LinkedInURL == "" {
			return b.reply(msg.Chat.ID, "The LinkedIn link is not configured.\n\n"+cta, true)
		}
		return b.reply(msg.Chat.ID, "LinkedIn: "+b.opts.LinkedInURL+"\n\n"+cta, true)
	case "reindex":
		return b.handleReindex(ctx, msg)
	default:
		return b.reply(msg.Chat.ID, "Unknown command. Try /help.", true)
	}
}

func (b *Bot) handleFreeText(ctx context.Context, msg *tgbotapi.Message) error {
	answer, err := b.answerer.Answer(ctx, msg.Text)
	if err != nil {
		slog.WarnContext(ctx, "free-text answer failed", "error", err)
		return b.reply(msg.Chat.ID, b.noAnswerText(), true)
	}
	if answer == "" {
		return b.reply(msg.Chat.ID, b.noAnswerText(), true)
	}
	return b.reply(msg.Chat.ID, answer, true)
}

func (b *Bot) handleReindex(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.From.ID != b.opts.OwnerID {
		return b.reply(msg.Chat.ID, "This command is available to the owner only.", false)
	}

	if err := b.reply(msg.Chat.ID, "Rebuilding the index…", false); err != nil {
		return err
	}
	if err := b.reindex.Ingest(ctx); err != nil {
		return b.reply(msg.Chat.ID, fmt.Sprintf("Reindex failed: %v", err), false)
	}
	b.cache.Reload(b.opts.DataDir)
	return b.reply(msg.Chat.ID, "Reindex finished, cache refreshed.", true)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Acknowledge first so the client stops its spinner even if the action
	// below fails.
	if err := b.sender.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		slog.WarnContext(ctx, "callback ack failed", "error", err)
	}
	if cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID

	data := cb.Data
	switch {
	case data == "about":
		return b.reply(chatID, b.aboutText(), true)
	case data == "resume":
		return b.sendResume(chatID)
	case data == "resume_1p":
		return b.sendResumeOnePage(chatID)
	case data == "faq_menu":
		return b.sendFAQMenu(chatID)
	case data == "faq_close":
		// Best-effort: the message may already be gone.
		_ = b.sender.Request(tgbotapi.NewDeleteMessage(chatID, cb.Message.MessageID))
		return nil
	case data == "faq_nop":
		return nil
	case strings.HasPrefix(data, "faq_p:"):
		page, _ := strconv.Atoi(strings.TrimPrefix(data, "faq_p:"))
		return b.sendFAQPage(chatID, cb.Message.MessageID, page)
	case strings.HasPrefix(data, "faq_t:"):
		return b.sendFAQTopic(chatID, strings.TrimPrefix(data, "faq_t:"))
	default:
		return nil
	}
}

func (b *Bot) sendFAQMenu(chatID int64) error {
	cache := b.cache.Get()
	if len(cache.Topics) == 0 {
		return b.reply(chatID, "No HR FAQ is available right now. "+cta, true)
	}

	msg := tgbotapi.NewMessage(chatID, "Frequent questions from HR — pick a topic:")
	msg.ReplyMarkup = faqKeyboard(cache.Topics, 0)
	_, err := b.sender.Send(msg)
	return err
}

func (b *Bot) sendFAQPage(chatID int64, messageID, page int) error {
	cache := b.cache.Get()
	kb := faqKeyboard(cache.Topics, page)

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, kb)
	if _, err := b.sender.Send(edit); err != nil {
		// The message may be too old to edit; fall back to a fresh menu.
		msg := tgbotapi.NewMessage(chatID, "Frequent questions from HR — pick a topic:")
		msg.ReplyMarkup = kb
		_, err = b.sender.Send(msg)
		return err
	}
	return nil
}

func (b *Bot) sendFAQTopic(chatID int64, key string) error {
	cache := b.cache.Get()
	reply, ok := cache.Replies[key]
	if !ok {
		return b.reply(chatID, "No cached answer for that topic.", true)
	}

	label := key
	for _, topic := range cache.Topics {
		if topic.Key == key {
			label = topic.Full
			break
		}
	}
	return b.reply(chatID, label+"\n\n"+reply, true)
}

func (b *Bot) sendResume(chatID int64) error {
	if _, err := os.Stat(b.opts.ResumePath); err != nil {
		return b.reply(chatID, "The resume file is not available on the server.", true)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(b.opts.ResumePath))
	doc.Caption = "Resume (PDF).\n\n" + cta
	_, err := b.sender.Send(doc)
	return err
}

func (b *Bot) sendResumeOnePage(chatID int64) error {
	path := b.opts.ResumeOnePagePath
	if path == "" {
		return b.reply(chatID, "The one-page CV is not configured.", true)
	}
	if _, err := os.Stat(path); err != nil {
		return b.reply(chatID, "The one-page CV is not available on the server.", true)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "One-page CV (PDF).\n\n" + cta
	_, err := b.sender.Send(doc)
	return err
}

func (b *Bot) noAnswerText() string {
	if b.opts.ContactInfo != "" {
		return noAnswerReply + "\n\nContact: " + b.opts.ContactInfo
	}
	return noAnswerReply
}

func (b *Bot) aboutText() string {
	if about := b.cache.Get().About; about != "" {
		return about
	}
	return aboutFallback
}

// reply sends text, optionally with the main menu attached.
func (b *Bot) reply(chatID int64, text string, withMenu bool) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if withMenu {
		msg.ReplyMarkup = mainKeyboard()
	}
	_, err := b.sender.Send(msg)
	return err
}
