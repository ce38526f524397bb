// Package telegram is a consumer of board events from Telegram Bot API.
package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is a part of *tgbotapi.BotAPI used by the bot.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetMe() (tgbotapi.User, error)
}

// Config ...
type Config struct {
	// ChannelID is the board channel.
	ChannelID int64
	// ChannelUsername is used for post links.
	ChannelUsername string
	// BotUsername is used for media viewer links.
	BotUsername string
	// MediaPurgeInterval is how long media viewer replies live. Zero disables purging.
	MediaPurgeInterval time.Duration
	// UpdateTimeout is long polling timeout in seconds.
	UpdateTimeout int
}

func (c Config) postURL(id int64) string {
	return fmt.Sprintf("https://t.me/%s/%d", c.ChannelUsername, id)
}

func (c Config) mediaURL(key string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", c.BotUsername, key)
}
