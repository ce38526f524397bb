package board

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgchan/tgchan/internal/entities"
)

func TestTransition(t *testing.T) {
	tt := []struct {
		name    string
		current entities.Vote
		action  entities.Vote
		next    entities.Vote
		delta   int
	}{
		{name: "first_like", current: entities.NoVote, action: entities.Like, next: entities.Like, delta: 1},
		{name: "first_dislike", current: entities.NoVote, action: entities.Dislike, next: entities.Dislike, delta: -1},
		{name: "retract_like", current: entities.Like, action: entities.Like, next: entities.NoVote, delta: -1},
		{name: "retract_dislike", current: entities.Dislike, action: entities.Dislike, next: entities.NoVote, delta: 1},
		{name: "like_to_dislike", current: entities.Like, action: entities.Dislike, next: entities.Dislike, delta: -2},
		{name: "dislike_to_like", current: entities.Dislike, action: entities.Like, next: entities.Like, delta: 2},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			next, delta := Transition(tc.current, tc.action)
			assert.Equal(t, tc.next, next)
			assert.Equal(t, tc.delta, delta)
		})
	}
}

func TestApplyVote_RatingMatchesFeedbacks(t *testing.T) {
	db := entities.NewDatabase()
	db.AddPost(1, "secret", "", time.Time{})

	voters := []entities.Pseudonym{"a", "b", "c", "d"}
	actions := []entities.Vote{entities.Like, entities.Dislike}
	r := rand.New(rand.NewSource(1)) // nolint:gosec

	for i := 0; i < 500; i++ {
		_, ok := ApplyVote(db, 1, voters[r.Intn(len(voters))], actions[r.Intn(len(actions))])
		require.True(t, ok)

		p, _ := db.Post(1)
		var sum int
		for _, v := range p.Feedbacks {
			sum += v.Weight()
		}
		require.Equal(t, sum, p.Rating)
		require.Equal(t, p.Likes()-p.Dislikes(), p.Rating)
	}
}

func TestApplyVote_ToggleTwice(t *testing.T) {
	for _, action := range []entities.Vote{entities.Like, entities.Dislike} {
		db := entities.NewDatabase()
		db.AddPost(1, "secret", "", time.Time{})
		ApplyVote(db, 1, "other", entities.Like)

		p, _ := db.Post(1)
		before := p.Rating

		o, ok := ApplyVote(db, 1, "voter", action)
		require.True(t, ok)
		require.False(t, o.Retracted)

		o, ok = ApplyVote(db, 1, "voter", action)
		require.True(t, ok)
		require.True(t, o.Retracted)

		require.Equal(t, before, p.Rating)
		_, exists := p.Feedbacks["voter"]
		require.False(t, exists)
	}
}

func TestApplyVote_LikeThenDislike(t *testing.T) {
	db := entities.NewDatabase()
	db.AddPost(1, "secret", "", time.Time{})

	liked, _ := ApplyVote(db, 1, "voter", entities.Like)
	disliked, _ := ApplyVote(db, 1, "voter", entities.Dislike)

	require.Equal(t, -2, disliked.Rating-liked.Rating)
	require.Equal(t, 0, disliked.Likes)
	require.Equal(t, 1, disliked.Dislikes)
}

func TestApplyVote_Invalid(t *testing.T) {
	db := entities.NewDatabase()
	db.AddPost(1, "secret", "", time.Time{})
	db.ResetChanges()

	_, ok := ApplyVote(db, 2, "voter", entities.Like)
	require.False(t, ok)

	_, ok = ApplyVote(db, 1, "voter", entities.NoVote)
	require.False(t, ok)

	require.True(t, db.Changes().Empty())
}

func TestThresholds_Evaluate(t *testing.T) {
	th := Thresholds{Pin: 3, Unpin: 2, Delete: 5, Safe: 2}

	tt := []struct {
		name   string
		rating int
		pinned bool
		queued bool
		want   Verdict
	}{
		{name: "neutral", rating: 0, queued: true},
		{name: "safe", rating: 2, queued: true, want: Verdict{Dequeue: true}},
		{name: "safe_not_queued", rating: 2},
		{name: "pin", rating: 3, queued: true, want: Verdict{Pin: true, Dequeue: true}},
		{name: "already_pinned", rating: 4, pinned: true},
		{name: "unpin", rating: -2, pinned: true, want: Verdict{Unpin: true}},
		{name: "unpin_not_pinned", rating: -3},
		{name: "delete", rating: -5, pinned: true, queued: true, want: Verdict{Delete: true}},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			p := &entities.Post{Rating: tc.rating, Pinned: tc.pinned}
			require.Equal(t, tc.want, th.Evaluate(p, tc.queued))
		})
	}

	require.Equal(t, Verdict{}, Thresholds{Pin: 3, Unpin: 2, Delete: 5}.Evaluate(&entities.Post{Rating: 2}, true))
}
