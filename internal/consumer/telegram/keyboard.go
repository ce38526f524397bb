package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	likeData    = "like"
	dislikeData = "dislike"
	replyData   = "reply"
	postData    = "post"
)

func voteRow(likes, dislikes int) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👍 : %d", likes), likeData),
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👎 : %d", dislikes), dislikeData),
		tgbotapi.NewInlineKeyboardButtonData("Reply", replyData),
	)
}

func promptKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Post", postData)),
	)
}

func isVoteRow(row []tgbotapi.InlineKeyboardButton) bool {
	for _, b := range row {
		if b.CallbackData != nil && *b.CallbackData == likeData {
			return true
		}
	}

	return false
}

// withCounts returns post keyboard with vote row re-rendered. Other rows (e.g. media link) are kept.
func withCounts(m *tgbotapi.InlineKeyboardMarkup, likes, dislikes int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if m != nil {
		for _, row := range m.InlineKeyboard {
			if !isVoteRow(row) {
				rows = append(rows, row)
			}
		}
	}

	return tgbotapi.NewInlineKeyboardMarkup(append(rows, voteRow(likes, dislikes))...)
}
