package server

import (
	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/service"
)

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// Post ...
// swagger:model
type Post struct {
	ID       int64 `json:"id"`
	Rating   int   `json:"rating"`
	Likes    int   `json:"likesCount"`
	Dislikes int   `json:"dislikesCount"`
	Pinned   bool  `json:"pinned"`
	// Queued is true if post will be auto-deleted.
	Queued    bool  `json:"queued"`
	HasMedia  bool  `json:"hasMedia"`
	CreatedAt int64 `json:"createdAt"`
}

// ListQueueResponse ...
// swagger:model
type ListQueueResponse struct {
	// Posts waiting for auto-delete, the oldest first.
	Posts []int64 `json:"posts"`
}

// VoteRequest ...
// swagger:model
type VoteRequest struct {
	Identity int64 `json:"identity"`
	// enum: like,dislike
	Action string `json:"action"`
}

// DeleteRequest ...
// swagger:model
type DeleteRequest struct {
	Identity int64 `json:"identity"`
	Token    int64 `json:"token"`
}

// EffectsResponse ...
// swagger:model
type EffectsResponse struct {
	Effects []service.Effect `json:"effects"`
}

func toAPIPost(p *entities.Post, queued bool) Post {
	return Post{
		ID:        int64(p.ID),
		Rating:    p.Rating,
		Likes:     p.Likes(),
		Dislikes:  p.Dislikes(),
		Pinned:    p.Pinned,
		Queued:    queued,
		HasMedia:  p.Media != "",
		CreatedAt: p.CreatedAt.Unix(),
	}
}
