package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/tgchan/tgchan/internal/consumer"
	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/media"
	"github.com/tgchan/tgchan/internal/service"
)

var log = logrus.WithField("layer", "consumer").WithField("package", "telegram")

var errUpdatesClosed = errors.New("updates channel is closed")

type bot struct {
	api   BotAPI
	s     service.Service
	m     media.Store
	c     Config
	clock clockwork.Clock
}

// New returns telegram consumer.
func New(api BotAPI, s service.Service, m media.Store, clock clockwork.Clock, c Config) consumer.Consumer {
	return bot{
		api:   api,
		s:     s,
		m:     m,
		c:     c,
		clock: clock,
	}
}

// Name ...
func (b bot) Name() string {
	return "telegram"
}

// Ping checks bot token.
func (b bot) Ping(_ context.Context) error {
	if _, err := b.api.GetMe(); err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	return nil
}

// Run ...
func (b bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.c.UpdateTimeout

	ch := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-ch:
			if !ok {
				return errUpdatesClosed
			}
			b.handle(ctx, upd)
		}
	}
}

func (b bot) handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil && upd.CallbackQuery.Message != nil:
		b.onCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil && upd.Message.Chat.IsPrivate():
		if upd.Message.IsCommand() && b.onCommand(ctx, upd.Message) {
			return
		}
		b.onMessage(ctx, upd.Message)
	default:
		if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			log.WithField("update", upd.UpdateID).Debug("skip update\n", spew.Sdump(upd))
		}
	}
}

// origin is where confirmations and rejections are reported.
type origin struct {
	chatID    int64
	messageID int
	// callbackID is set when event came from a button.
	callbackID string
	// markup is the board post keyboard vote came from.
	markup *tgbotapi.InlineKeyboardMarkup
}

func messageOrigin(m *tgbotapi.Message) origin {
	return origin{chatID: m.Chat.ID, messageID: m.MessageID}
}

func callbackOrigin(cq *tgbotapi.CallbackQuery) origin {
	o := messageOrigin(cq.Message)
	o.callbackID = cq.ID
	o.markup = cq.Message.ReplyMarkup
	return o
}

func (b bot) onCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	o := callbackOrigin(cq)

	var (
		effects []service.Effect
		err     error
	)

	switch cq.Data {
	case postData:
		if cq.Message.ReplyToMessage == nil {
			effects = []service.Effect{service.Reject(service.InvalidContent)}
			break
		}
		effects, err = b.s.NewPost(ctx, service.NewPostRequest{
			Author:  cq.From.ID,
			Content: contentOf(cq.Message.ReplyToMessage),
		})
	case likeData, dislikeData:
		effects, err = b.s.Vote(ctx, service.VoteRequest{
			PostID: b.boardPost(cq.Message),
			Voter:  cq.From.ID,
			Action: cq.Data,
		})
	case replyData:
		effects, err = b.s.Reply(ctx, cq.From.ID, b.boardPost(cq.Message))
	default:
		effects = []service.Effect{service.Reject(service.InvalidAction)}
	}

	if err != nil {
		log.WithError(err).WithField("action", cq.Data).Error("failed to handle callback")
		b.notify(o, internalError)
		return
	}

	b.execute(o, effects)
}

// boardPost returns post id of a channel message. Messages from other chats never match a post.
func (b bot) boardPost(m *tgbotapi.Message) entities.PostID {
	if m.Chat == nil || m.Chat.ID != b.c.ChannelID {
		return 0
	}

	return entities.PostID(m.MessageID)
}

// onCommand returns false if the message is not a known command.
func (b bot) onCommand(ctx context.Context, m *tgbotapi.Message) bool {
	o := messageOrigin(m)

	var (
		effects []service.Effect
		err     error
	)

	switch m.Command() {
	case "start":
		if args := m.CommandArguments(); args != "" {
			b.showMedia(ctx, o, args)
		} else {
			b.notify(o, introText)
		}
		return true
	case "privacy":
		b.notify(o, privacyText)
		return true
	case "cancel":
		effects, err = b.s.Cancel(ctx, m.From.ID)
	case "delete":
		r, msg := parseDelete(m.CommandArguments())
		if msg != "" {
			b.notify(o, msg)
			return true
		}
		r.Requester = m.From.ID
		effects, err = b.s.Delete(ctx, r)
	default:
		return false
	}

	if err != nil {
		log.WithError(err).WithField("command", m.Command()).Error("failed to handle command")
		b.notify(o, internalError)
		return true
	}

	b.execute(o, effects)

	return true
}

// parseDelete parses "<post id> <token>". Non-empty string is an error message for user.
func parseDelete(args string) (service.DeleteRequest, string) {
	f := strings.Fields(args)
	if len(f) != 2 {
		return service.DeleteRequest{}, invalidSyntax
	}

	id, err := strconv.ParseUint(f[0], 10, 63)
	if err != nil {
		return service.DeleteRequest{}, invalidCommand
	}

	token, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return service.DeleteRequest{}, invalidCommand
	}

	return service.DeleteRequest{PostID: entities.PostID(id), Token: token}, ""
}

func (b bot) onMessage(ctx context.Context, m *tgbotapi.Message) {
	text := promptText

	target, err := b.s.ReplyTarget(ctx, m.From.ID)
	if err != nil {
		log.WithError(err).Warn("failed to get reply target")
	}
	if target != nil {
		text += fmt.Sprintf(replyingToText, b.c.postURL(int64(*target)))
	}

	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	msg.ReplyToMessageID = m.MessageID
	msg.ReplyMarkup = promptKeyboard()

	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("failed to send prompt")
	}
}

func contentOf(m *tgbotapi.Message) service.Content {
	switch {
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return service.Content{
			Text:  m.Caption,
			Media: &service.Media{Kind: service.PhotoMedia, Size: int64(p.FileSize), FileID: p.FileID},
		}
	case m.Video != nil:
		return service.Content{
			Text:  m.Caption,
			Media: &service.Media{Kind: service.VideoMedia, Size: int64(m.Video.FileSize), FileID: m.Video.FileID},
		}
	default:
		return service.Content{Text: m.Text}
	}
}

func (b bot) execute(o origin, effects []service.Effect) {
	for _, e := range effects {
		var c tgbotapi.Chattable

		switch e.Kind {
		case service.ConfirmEffect:
			b.confirm(o, e.Details)
		case service.RejectEffect:
			b.notify(o, rejectMessage(e.Reason))
		case service.PinEffect:
			c = tgbotapi.PinChatMessageConfig{ChatID: b.c.ChannelID, MessageID: int(e.PostID), DisableNotification: true}
		case service.UnpinEffect:
			c = tgbotapi.UnpinChatMessageConfig{ChatID: b.c.ChannelID, MessageID: int(e.PostID)}
		case service.DeleteEffect:
			c = tgbotapi.NewDeleteMessage(b.c.ChannelID, int(e.PostID))
		case service.UpdatedCountsEffect:
			c = tgbotapi.NewEditMessageReplyMarkup(b.c.ChannelID, int(e.PostID), withCounts(o.markup, e.Likes, e.Dislikes))
		default:
			log.WithField("kind", e.Kind).Warn("unknown effect")
		}

		if c == nil {
			continue
		}

		if _, err := b.api.Request(c); err != nil {
			log.WithError(err).WithField("kind", e.Kind).WithField("post", e.PostID).Warn("failed to execute effect")
		}
	}
}

func (b bot) confirm(o origin, d *service.Details) {
	if d == nil {
		return
	}

	if d.Action != service.Posted {
		b.notify(o, confirmText[d.Action])
		return
	}

	text := fmt.Sprintf(postedText, b.c.postURL(int64(d.PostID)), d.PostID, d.Token)
	if o.callbackID == "" {
		b.notify(o, text)
		return
	}

	b.answer(o.callbackID, "")
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(o.chatID, o.messageID, text)); err != nil {
		log.WithError(err).Error("failed to report posted message")
	}
}

func (b bot) notify(o origin, text string) {
	if o.callbackID != "" {
		b.answer(o.callbackID, text)
		return
	}

	msg := tgbotapi.NewMessage(o.chatID, text)
	msg.ReplyToMessageID = o.messageID

	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

func (b bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Warn("failed to answer callback")
	}
}
