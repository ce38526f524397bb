package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/media"
	"github.com/tgchan/tgchan/internal/service"
)

// Publisher sends accepted posts to the board channel.
// Attachments are downloaded to the media store and linked through the media viewer.
type Publisher struct {
	api   BotAPI
	media media.Store
	http  *http.Client
	c     Config
}

// NewPublisher ...
func NewPublisher(api BotAPI, m media.Store, client *http.Client, c Config) *Publisher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Publisher{
		api:   api,
		media: m,
		http:  client,
		c:     c,
	}
}

// Stage implements service.Publisher.
func (p *Publisher) Stage(ctx context.Context, m *service.Media, name entities.Pseudonym, limit int64) (string, error) {
	url, err := p.api.GetFileDirectURL(m.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file: unexpected status %d", resp.StatusCode)
	}

	if resp.ContentLength > limit {
		return "", fmt.Errorf("file is %d bytes: %w", resp.ContentLength, service.ErrMediaTooLarge)
	}

	ref, err := p.media.Save(string(name), extension(m.Kind), &limitReader{r: resp.Body, n: limit})
	if err != nil {
		return "", fmt.Errorf("failed to save media: %w", err)
	}

	return ref, nil
}

// Publish implements service.Publisher. Attachment must be staged before.
func (p *Publisher) Publish(ctx context.Context, pub service.Publication) (*service.Published, error) {
	var rows [][]tgbotapi.InlineKeyboardButton

	if m := pub.Content.Media; m != nil {
		label := "View attached photo"
		if m.Kind == service.VideoMedia {
			label = "View attached video"
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(label, p.c.mediaURL(media.Key(string(pub.Secret), extension(m.Kind)))),
		))
	}

	msg := tgbotapi.NewMessage(p.c.ChannelID, postText(pub))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(append(rows, voteRow(0, 0))...)
	if pub.ReplyTo != nil {
		msg.ReplyToMessageID = int(*pub.ReplyTo)
	}

	sent, err := p.api.Send(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send post: %w", err)
	}

	return &service.Published{
		ID:    entities.PostID(sent.MessageID),
		Media: pub.Media,
	}, nil
}

func extension(k service.MediaKind) media.Extension {
	if k == service.VideoMedia {
		return media.MP4
	}

	return media.JPG
}

func postText(pub service.Publication) string {
	footer := fmt.Sprintf("Hash: %s", pub.Secret)
	if pub.Content.Text == "" {
		return footer
	}

	return pub.Content.Text + "\n\n" + footer
}

// limitReader fails with service.ErrMediaTooLarge as soon as more than n bytes are read.
type limitReader struct {
	r io.Reader
	n int64
}

func (l *limitReader) Read(b []byte) (int, error) {
	if l.n < 0 {
		return 0, service.ErrMediaTooLarge
	}

	if int64(len(b)) > l.n+1 {
		b = b[:l.n+1]
	}

	n, err := l.r.Read(b)
	l.n -= int64(n)
	if l.n < 0 {
		return n, service.ErrMediaTooLarge
	}

	return n, err
}
