// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tgchan/tgchan/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrNotFound is returned when requested post does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

// ErrMediaTooLarge is returned by Publisher.Stage when attachment exceeds the limit.
var ErrMediaTooLarge = errors.New("media too large")

// Service handles inbound board events one at a time and returns effects to be executed by transport.
// Returned error means the event failed and nothing was changed; rejections are effects, not errors.
type Service interface {
	NewPost(ctx context.Context, r NewPostRequest) ([]Effect, error)
	Vote(ctx context.Context, r VoteRequest) ([]Effect, error)
	Delete(ctx context.Context, r DeleteRequest) ([]Effect, error)
	Reply(ctx context.Context, identity int64, id entities.PostID) ([]Effect, error)
	Cancel(ctx context.Context, identity int64) ([]Effect, error)

	ReplyTarget(ctx context.Context, identity int64) (*entities.PostID, error)
	GetPost(ctx context.Context, id entities.PostID) (*entities.Post, error)
	ListQueue(ctx context.Context) ([]entities.PostID, error)
}

// Publisher publishes accepted post to the board and assigns its id.
type Publisher interface {
	// Stage downloads attachment to the media store under name and returns the stored reference.
	// It reads at most limit bytes and fails with ErrMediaTooLarge beyond that.
	Stage(ctx context.Context, m *Media, name entities.Pseudonym, limit int64) (string, error)
	Publish(ctx context.Context, p Publication) (*Published, error)
}

// Config is a moderation policy.
type Config struct {
	PostInterval        time.Duration
	AutoDeleteCount     int
	PinLikeLimit        int
	UnpinDislikeLimit   int
	DeleteDislikeLimit  int
	AutoDeleteSafeLimit int
	OwnerIdentity       int64
	MaxImageSize        int64
	MaxVideoSize        int64
}

// Validate ...
func (c Config) Validate() error {
	switch {
	case c.PostInterval < 0:
		return fmt.Errorf("%w: negative post interval", ErrInvalidConfig)
	case c.AutoDeleteCount <= 0:
		return fmt.Errorf("%w: auto delete count should be positive", ErrInvalidConfig)
	case c.PinLikeLimit <= 0, c.UnpinDislikeLimit <= 0, c.DeleteDislikeLimit <= 0:
		return fmt.Errorf("%w: rating limits should be positive", ErrInvalidConfig)
	case c.AutoDeleteSafeLimit < 0:
		return fmt.Errorf("%w: negative auto delete safe limit", ErrInvalidConfig)
	case c.MaxImageSize <= 0, c.MaxVideoSize <= 0:
		return fmt.Errorf("%w: media size limits should be positive", ErrInvalidConfig)
	case c.OwnerIdentity <= 0:
		return fmt.Errorf("%w: owner identity should be positive", ErrInvalidConfig)
	}

	return nil
}

// MediaKind ...
type MediaKind string

const (
	// PhotoMedia ...
	PhotoMedia MediaKind = "photo"
	// VideoMedia ...
	VideoMedia MediaKind = "video"
)

// Media is an attachment not yet downloaded.
type Media struct {
	Kind   MediaKind
	Size   int64
	FileID string
}

// Content is a submitted message.
type Content struct {
	Text  string
	Media *Media
}

// NewPostRequest ...
type NewPostRequest struct {
	Author  int64
	Content Content
	// ReplyTo overrides reply mode session.
	ReplyTo *entities.PostID
}

// VoteRequest ...
type VoteRequest struct {
	PostID entities.PostID
	Voter  int64
	Action string
}

// DeleteRequest ...
type DeleteRequest struct {
	PostID    entities.PostID
	Requester int64
	Token     int64
}

// Publication is a post ready to be published.
type Publication struct {
	Content Content
	ReplyTo *entities.PostID
	// Secret is shown under the post.
	Secret entities.Pseudonym
	// Media is a staged attachment reference, empty for text posts.
	Media string
}

// Published ...
type Published struct {
	ID entities.PostID
	// Media is a stored asset reference, empty for text posts.
	Media string
}

// EffectKind ...
type EffectKind string

const (
	// ConfirmEffect ...
	ConfirmEffect EffectKind = "confirm"
	// RejectEffect ...
	RejectEffect EffectKind = "reject"
	// PinEffect ...
	PinEffect EffectKind = "pin"
	// UnpinEffect ...
	UnpinEffect EffectKind = "unpin"
	// DeleteEffect ...
	DeleteEffect EffectKind = "delete"
	// UpdatedCountsEffect ...
	UpdatedCountsEffect EffectKind = "updated_counts"
)

// RejectReason ...
type RejectReason string

const (
	// InvalidPost means referenced post does not exist.
	InvalidPost RejectReason = "invalid_post"
	// Unauthorized means delete token mismatch.
	Unauthorized RejectReason = "unauthorized"
	// TooSoon means posting cooldown is not over.
	TooSoon RejectReason = "too_soon"
	// MediaTooLarge ...
	MediaTooLarge RejectReason = "media_too_large"
	// ReplyTargetExpiring means reply target would be evicted by the new post.
	ReplyTargetExpiring RejectReason = "reply_target_expiring"
	// InvalidAction means unknown vote or command.
	InvalidAction RejectReason = "invalid_action"
	// InvalidContent means empty message or unsupported attachment.
	InvalidContent RejectReason = "invalid_content"
	// NotReplying means cancel was requested without reply mode.
	NotReplying RejectReason = "not_replying"
)

// Action is a confirmed action.
type Action string

const (
	// Posted ...
	Posted Action = "posted"
	// Deleted ...
	Deleted Action = "deleted"
	// Voted ...
	Voted Action = "voted"
	// Retracted means vote was removed.
	Retracted Action = "retracted"
	// Replying means reply mode is activated.
	Replying Action = "replying"
	// Cancelled means reply mode is deactivated.
	Cancelled Action = "cancelled"
)

// Details of confirmed action.
type Details struct {
	Action  Action           `json:"action"`
	PostID  entities.PostID  `json:"postId,omitempty"`
	ReplyTo *entities.PostID `json:"replyTo,omitempty"`
	// Token and Secret are set only for Posted and must be shown to the author only.
	Token  int64              `json:"token,omitempty"`
	Secret entities.Pseudonym `json:"secret,omitempty"`
}

// Effect is an outbound instruction for transport.
type Effect struct {
	Kind     EffectKind      `json:"kind"`
	PostID   entities.PostID `json:"postId,omitempty"`
	Reason   RejectReason    `json:"reason,omitempty"`
	Likes    int             `json:"likes,omitempty"`
	Dislikes int             `json:"dislikes,omitempty"`
	Details  *Details        `json:"details,omitempty"`
}

// Confirm ...
func Confirm(d Details) Effect {
	return Effect{Kind: ConfirmEffect, PostID: d.PostID, Details: &d}
}

// Reject ...
func Reject(reason RejectReason) Effect {
	return Effect{Kind: RejectEffect, Reason: reason}
}

// Pin ...
func Pin(id entities.PostID) Effect {
	return Effect{Kind: PinEffect, PostID: id}
}

// Unpin ...
func Unpin(id entities.PostID) Effect {
	return Effect{Kind: UnpinEffect, PostID: id}
}

// Delete ...
func Delete(id entities.PostID) Effect {
	return Effect{Kind: DeleteEffect, PostID: id}
}

// UpdatedCounts ...
func UpdatedCounts(id entities.PostID, likes, dislikes int) Effect {
	return Effect{Kind: UpdatedCountsEffect, PostID: id, Likes: likes, Dislikes: dislikes}
}

// Rejection returns reject reason if effects contain rejection.
func Rejection(effects []Effect) (RejectReason, bool) {
	for _, e := range effects {
		if e.Kind == RejectEffect {
			return e.Reason, true
		}
	}

	return "", false
}
