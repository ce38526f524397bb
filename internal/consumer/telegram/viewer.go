package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tgchan/tgchan/internal/media"
)

// showMedia sends stored attachment to user. The reply is deleted after MediaPurgeInterval.
func (b bot) showMedia(ctx context.Context, o origin, key string) {
	rc, ext, err := b.m.Open(key)
	if err != nil {
		if !errors.Is(err, media.ErrNotFound) && !errors.Is(err, media.ErrInvalidKey) {
			log.WithError(err).Error("failed to open media")
		}
		b.notify(o, invalidMediaKey)
		return
	}
	defer rc.Close()

	file := tgbotapi.FileReader{Name: fmt.Sprintf("%s.%s", media.SanitizeKey(key), ext), Reader: rc}

	var c tgbotapi.Chattable
	switch ext {
	case media.MP4:
		v := tgbotapi.NewVideo(o.chatID, file)
		v.Caption = b.mediaCaption("video")
		c = v
	default:
		p := tgbotapi.NewPhoto(o.chatID, file)
		p.Caption = b.mediaCaption("photo")
		c = p
	}

	sent, err := b.api.Send(c)
	if err != nil {
		log.WithError(err).Error("failed to send media")
		return
	}

	if b.c.MediaPurgeInterval > 0 {
		go b.purge(ctx, o.chatID, sent.MessageID)
	}
}

func (b bot) mediaCaption(kind string) string {
	s := fmt.Sprintf(mediaCaption, kind)
	if b.c.MediaPurgeInterval > 0 {
		s += fmt.Sprintf(mediaPurgeNotice, int(b.c.MediaPurgeInterval.Seconds()))
	}

	return s
}

func (b bot) purge(ctx context.Context, chatID int64, messageID int) {
	select {
	case <-ctx.Done():
		return
	case <-b.clock.After(b.c.MediaPurgeInterval):
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).Debug("failed to purge media")
	}
}
