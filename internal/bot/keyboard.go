package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rumit2000/CVBotDevelop/internal/ingest"
)

const faqPerPage = 8

// mainKeyboard is the persistent inline menu under every reply.
func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("About me", "about"),
			tgbotapi.NewInlineKeyboardButtonData("CV", "resume"),
			tgbotapi.NewInlineKeyboardButtonData("CV (1 page)", "resume_1p"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("HR FAQ", "faq_menu"),
		),
	)
}

// faqKeyboard renders one page of FAQ topics with pager controls when the
// list spans multiple pages.
func faqKeyboard(topics []ingest.FAQTopic, page int) tgbotapi.InlineKeyboardMarkup {
	total := len(topics)
	totalPages := 1
	if total > 0 {
		totalPages = (total-1)/faqPerPage + 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * faqPerPage
	end := start + faqPerPage
	if end > total {
		end = total
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, topic := range topics[start:end] {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(topic.Label, "faq_t:"+topic.Key),
		))
	}

	if totalPages > 1 {
		var pager []tgbotapi.InlineKeyboardButton
		if page > 0 {
			pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("« Back", fmt.Sprintf("faq_p:%d", page-1)))
		}
		pager = append(pager, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("Page %d/%d", page+1, totalPages), "faq_nop"))
		if page < totalPages-1 {
			pager = append(pager, tgbotapi.NewInlineKeyboardButtonData("Next »", fmt.Sprintf("faq_p:%d", page+1)))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(pager...))
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Close", "faq_close"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
