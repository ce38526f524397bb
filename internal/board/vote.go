// Package board contains moderation rules applied to the board database:
// the vote state machine, rating thresholds, the auto-delete queue, posting cooldowns
// and delete authorization.
package board

import (
	"github.com/tgchan/tgchan/internal/entities"
)

// Transition returns voter's new feedback and rating delta for requested action.
//
//	current  action   next     delta
//	none     like     like     +1
//	none     dislike  dislike  -1
//	like     like     none     -1
//	dislike  dislike  none     +1
//	like     dislike  dislike  -2
//	dislike  like     like     +2
func Transition(current, action entities.Vote) (entities.Vote, int) {
	if current == action {
		return entities.NoVote, -current.Weight()
	}

	return action, action.Weight() - current.Weight()
}

// Outcome is a result of applied vote.
type Outcome struct {
	Rating    int
	Likes     int
	Dislikes  int
	Retracted bool
}

// ApplyVote applies voter's action to the post. It returns false if post does not exist.
func ApplyVote(db *entities.Database, id entities.PostID, voter entities.Pseudonym, action entities.Vote) (Outcome, bool) {
	p, ok := db.Post(id)
	if !ok || !action.Valid() {
		return Outcome{}, false
	}

	next, delta := Transition(p.Feedbacks[voter], action)
	db.SetFeedback(id, voter, next, delta)

	return Outcome{
		Rating:    p.Rating,
		Likes:     p.Likes(),
		Dislikes:  p.Dislikes(),
		Retracted: next == entities.NoVote,
	}, true
}

// Thresholds are rating limits. All comparisons are inclusive.
type Thresholds struct {
	Pin    int // pin when rating >= Pin
	Unpin  int // unpin when rating <= -Unpin
	Delete int // delete when rating <= -Delete
	Safe   int // leave auto-delete queue when rating >= Safe; 0 disables
}

// Verdict is what should happen to a post after its rating changed.
type Verdict struct {
	Pin     bool
	Unpin   bool
	Delete  bool
	Dequeue bool
}

// Evaluate returns verdict for the post. Pin and Unpin are edge-triggered by post's Pinned flag.
func (t Thresholds) Evaluate(p *entities.Post, queued bool) Verdict {
	var v Verdict

	if p.Rating <= -t.Delete {
		v.Delete = true
		return v
	}

	if p.Rating >= t.Pin && !p.Pinned {
		v.Pin = true
	}

	if p.Rating <= -t.Unpin && p.Pinned {
		v.Unpin = true
	}

	if t.Safe > 0 && p.Rating >= t.Safe && queued {
		v.Dequeue = true
	}

	return v
}
