package impl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgchan/tgchan/internal/entities"
	media "github.com/tgchan/tgchan/internal/media/mock"
	"github.com/tgchan/tgchan/internal/pseudonym"
	"github.com/tgchan/tgchan/internal/service"
	servicemock "github.com/tgchan/tgchan/internal/service/mock"
	"github.com/tgchan/tgchan/internal/session"
	sessionmock "github.com/tgchan/tgchan/internal/session/mock"
	storage "github.com/tgchan/tgchan/internal/storage/mock"
)

const owner = 1

var ctx = context.Background()

func testConfig() service.Config {
	return service.Config{
		PostInterval:       time.Minute,
		AutoDeleteCount:    3,
		PinLikeLimit:       2,
		UnpinDislikeLimit:  2,
		DeleteDislikeLimit: 3,
		OwnerIdentity:      owner,
		MaxImageSize:       100,
		MaxVideoSize:       1000,
	}
}

type env struct {
	srv   service.Service
	db    *entities.Database
	s     *storage.MockStorage
	m     *media.MockStore
	p     *servicemock.MockPublisher
	clock clockwork.FakeClock

	nextID    entities.PostID
	published []service.Publication
	removed   []string
}

func newEnv(t *testing.T, c service.Config) *env {
	ctrl := gomock.NewController(t)

	e := &env{
		db:     entities.NewDatabase(),
		s:      storage.NewMockStorage(ctrl),
		m:      media.NewMockStore(ctrl),
		clock:  clockwork.NewFakeClockAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
		nextID: 100,
	}

	e.p = servicemock.NewMockPublisher(ctrl)
	e.p.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, pub service.Publication) (*service.Published, error) {
			e.nextID++
			e.published = append(e.published, pub)
			ref := pub.Media
			if ref == "" {
				ref = fmt.Sprintf("%d.jpg", e.nextID)
			}
			return &service.Published{ID: e.nextID, Media: ref}, nil
		},
	).AnyTimes()

	e.s.EXPECT().Load(gomock.Any()).DoAndReturn(func(context.Context) (*entities.Database, error) {
		return e.db, nil
	}).MaxTimes(1)

	srv, err := New(c, pseudonym.New(42, 16), e.s, session.NewMemoryStore(16, time.Hour), e.m, e.p, e.clock)
	require.NoError(t, err)
	e.srv = srv

	return e
}

// seed adds posts directly to database and puts them to auto-delete queue.
func (e *env) seed(ids ...entities.PostID) {
	for _, id := range ids {
		e.db.AddPost(id, "secret", fmt.Sprintf("%d.jpg", id), e.clock.Now())
		e.db.PushAutoDelete(id)
	}
	e.db.ResetChanges()
}

func (e *env) allowSave() {
	e.s.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, db *entities.Database) error {
		db.ResetChanges()
		return nil
	}).AnyTimes()
	e.m.EXPECT().Remove(gomock.Any()).DoAndReturn(func(ref string) error {
		e.removed = append(e.removed, ref)
		return nil
	}).AnyTimes()
}

func text(author int64) service.NewPostRequest {
	return service.NewPostRequest{Author: author, Content: service.Content{Text: "hello"}}
}

func rejection(t *testing.T, effects []service.Effect) service.RejectReason {
	t.Helper()

	r, ok := service.Rejection(effects)
	require.True(t, ok, "expected rejection, got %+v", effects)
	require.Len(t, effects, 1)

	return r
}

func confirmed(t *testing.T, effects []service.Effect) *service.Details {
	t.Helper()

	require.NotEmpty(t, effects)
	for _, e := range effects {
		if e.Kind == service.ConfirmEffect {
			return e.Details
		}
	}
	require.FailNow(t, "no confirmation", "%+v", effects)

	return nil
}

func count(effects []service.Effect, kind service.EffectKind) int {
	var n int
	for _, e := range effects {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestNew_InvalidConfig(t *testing.T) {
	tt := []struct {
		name   string
		update func(c *service.Config)
		seed   int64
	}{
		{name: "auto delete count", update: func(c *service.Config) { c.AutoDeleteCount = 0 }},
		{name: "no owner", update: func(c *service.Config) { c.OwnerIdentity = 0 }},
		{name: "negative owner", update: func(c *service.Config) { c.OwnerIdentity = -5 }},
		{name: "huge seed", update: func(*service.Config) {}, seed: math.MaxInt64},
		{name: "huge negative seed", update: func(*service.Config) {}, seed: -pseudonym.MaxSeed - 1},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			c := testConfig()
			tc.update(&c)

			_, err := New(c, pseudonym.New(tc.seed, 1), nil, nil, nil, nil, clockwork.NewFakeClock())
			require.True(t, errors.Is(err, service.ErrInvalidConfig))
		})
	}
}

func photo(author int64) service.NewPostRequest {
	return service.NewPostRequest{
		Author:  author,
		Content: service.Content{Media: &service.Media{Kind: service.PhotoMedia, Size: 50, FileID: "file"}},
	}
}

func TestSrv_NewPost_Media(t *testing.T) {
	e := newEnv(t, testConfig())
	e.allowSave()

	r := photo(10)
	e.p.EXPECT().Stage(gomock.Any(), r.Content.Media, gomock.Any(), int64(100)).Return("staged.jpg", nil)

	effects, err := e.srv.NewPost(ctx, r)
	require.NoError(t, err)

	d := confirmed(t, effects)
	require.Len(t, e.published, 1)
	assert.Equal(t, "staged.jpg", e.published[0].Media)

	p, ok := e.db.Post(d.PostID)
	require.True(t, ok)
	assert.Equal(t, "staged.jpg", p.Media)
	assert.Empty(t, e.removed)
}

func TestSrv_NewPost_StageFailed(t *testing.T) {
	tt := []struct {
		name   string
		err    error
		reject service.RejectReason
	}{
		{name: "too large", err: fmt.Errorf("read: %w", service.ErrMediaTooLarge), reject: service.MediaTooLarge},
		{name: "download failed", err: context.DeadlineExceeded},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, testConfig())

			e.p.EXPECT().Stage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", tc.err)

			effects, err := e.srv.NewPost(ctx, photo(10))
			if tc.reject != "" {
				require.NoError(t, err)
				require.Equal(t, tc.reject, rejection(t, effects))
			} else {
				require.True(t, errors.Is(err, tc.err))
			}

			require.Empty(t, e.published)
			require.True(t, e.db.Changes().Empty())
		})
	}
}

func TestSrv_NewPost_StagesWithoutLock(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	e.p.EXPECT().Stage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, *service.Media, entities.Pseudonym, int64) (string, error) {
			effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 20, Action: "like"})
			require.NoError(t, err)
			require.Equal(t, service.UpdatedCounts(1, 1, 0), effects[1])

			// the same author posts while the attachment is downloading
			effects, err = e.srv.NewPost(ctx, text(10))
			require.NoError(t, err)
			confirmed(t, effects)

			return "staged.jpg", nil
		},
	)

	effects, err := e.srv.NewPost(ctx, photo(10))
	require.NoError(t, err)
	require.Equal(t, service.TooSoon, rejection(t, effects))

	require.Len(t, e.published, 1)
	assert.Equal(t, []string{"staged.jpg"}, e.removed)
}

func TestSrv_NewPost(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	effects, err := e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Len(t, effects, 1)

	d := confirmed(t, effects)
	assert.Equal(t, service.Posted, d.Action)
	assert.Equal(t, entities.PostID(101), d.PostID)
	assert.Nil(t, d.ReplyTo)
	assert.NotEmpty(t, d.Secret)

	p, ok := e.db.Post(101)
	require.True(t, ok)
	assert.Equal(t, d.Secret, p.Secret)
	assert.Equal(t, "101.jpg", p.Media)
	assert.Equal(t, e.clock.Now(), p.CreatedAt)
	assert.Equal(t, []entities.PostID{1, 101}, e.db.AutoDelete())

	require.Len(t, e.published, 1)
	assert.Equal(t, d.Secret, e.published[0].Secret)
}

func TestSrv_NewPost_Rejected(t *testing.T) {
	tt := []struct {
		name    string
		request service.NewPostRequest
		reason  service.RejectReason
	}{
		{
			name:    "empty",
			request: service.NewPostRequest{Author: 10},
			reason:  service.InvalidContent,
		},
		{
			name: "unsupported media",
			request: service.NewPostRequest{Author: 10, Content: service.Content{
				Media: &service.Media{Kind: "audio", Size: 1},
			}},
			reason: service.InvalidContent,
		},
		{
			name: "large image",
			request: service.NewPostRequest{Author: 10, Content: service.Content{
				Media: &service.Media{Kind: service.PhotoMedia, Size: 101},
			}},
			reason: service.MediaTooLarge,
		},
		{
			name: "large video",
			request: service.NewPostRequest{Author: 10, Content: service.Content{
				Media: &service.Media{Kind: service.VideoMedia, Size: 1001},
			}},
			reason: service.MediaTooLarge,
		},
		{
			name:    "unknown reply target",
			request: service.NewPostRequest{Author: 10, Content: service.Content{Text: "a"}, ReplyTo: idp(5)},
			reason:  service.InvalidPost,
		},
		{
			name:    "expiring reply target",
			request: service.NewPostRequest{Author: 10, Content: service.Content{Text: "a"}, ReplyTo: idp(1)},
			reason:  service.ReplyTargetExpiring,
		},
		{
			name:    "too soon",
			request: text(20),
			reason:  service.TooSoon,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, testConfig())
			e.seed(1, 2, 3)
			e.db.SetNextPostAt(pseudonym.New(42, 1).Identity(20), e.clock.Now().Add(time.Second))
			e.db.ResetChanges()

			effects, err := e.srv.NewPost(ctx, tc.request)
			require.NoError(t, err)
			require.Equal(t, tc.reason, rejection(t, effects))

			require.Empty(t, e.published)
			require.True(t, e.db.Changes().Empty())
			require.Equal(t, []entities.PostID{1, 2, 3}, e.db.AutoDelete())
		})
	}
}

func idp(id entities.PostID) *entities.PostID {
	return &id
}

func TestSrv_NewPost_Evicts(t *testing.T) {
	c := testConfig()
	c.AutoDeleteCount = 2

	e := newEnv(t, c)
	e.allowSave()

	for i := int64(0); i < 2; i++ {
		effects, err := e.srv.NewPost(ctx, text(10+i))
		require.NoError(t, err)
		require.Len(t, effects, 1)
	}

	effects, err := e.srv.NewPost(ctx, text(12))
	require.NoError(t, err)
	require.Equal(t, []service.Effect{
		service.Delete(101),
		service.Confirm(*confirmed(t, effects)),
	}, effects)

	_, ok := e.db.Post(101)
	require.False(t, ok)
	require.Equal(t, []string{"101.jpg"}, e.removed)
	require.Equal(t, []entities.PostID{102, 103}, e.db.AutoDelete())

	list, err := e.srv.ListQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, []entities.PostID{102, 103}, list)
}

func TestSrv_NewPost_RateLimit(t *testing.T) {
	e := newEnv(t, testConfig())
	e.allowSave()

	effects, err := e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Equal(t, service.Posted, confirmed(t, effects).Action)

	e.clock.Advance(30 * time.Second)
	effects, err = e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Equal(t, service.TooSoon, rejection(t, effects))

	e.clock.Advance(31 * time.Second)
	effects, err = e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Equal(t, service.Posted, confirmed(t, effects).Action)

	for i := 0; i < 3; i++ {
		effects, err = e.srv.NewPost(ctx, text(owner))
		require.NoError(t, err)
		require.Equal(t, service.Posted, confirmed(t, effects).Action)
	}
}

func TestSrv_ReplyMode(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	effects, err := e.srv.Reply(ctx, 10, 5)
	require.NoError(t, err)
	require.Equal(t, service.InvalidPost, rejection(t, effects))

	effects, err = e.srv.Cancel(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, service.NotReplying, rejection(t, effects))

	effects, err = e.srv.Reply(ctx, 10, 1)
	require.NoError(t, err)
	require.Equal(t, []service.Effect{service.Confirm(service.Details{Action: service.Replying, PostID: 1})}, effects)

	target, err := e.srv.ReplyTarget(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, idp(1), target)

	effects, err = e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Equal(t, idp(1), confirmed(t, effects).ReplyTo)
	require.Equal(t, idp(1), e.published[0].ReplyTo)

	target, err = e.srv.ReplyTarget(ctx, 10)
	require.NoError(t, err)
	require.Nil(t, target)

	_, err = e.srv.Reply(ctx, 10, 1)
	require.NoError(t, err)

	effects, err = e.srv.Cancel(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, service.Cancelled, confirmed(t, effects).Action)
}

func TestSrv_ReplyMode_Expiring(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1, 2, 3)

	_, err := e.srv.Reply(ctx, 10, 1)
	require.NoError(t, err)

	effects, err := e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	require.Equal(t, service.ReplyTargetExpiring, rejection(t, effects))
	require.True(t, e.db.Changes().Empty())

	target, err := e.srv.ReplyTarget(ctx, 10)
	require.NoError(t, err)
	require.Nil(t, target)
}

func TestSrv_Delete(t *testing.T) {
	e := newEnv(t, testConfig())
	e.allowSave()

	effects, err := e.srv.NewPost(ctx, text(10))
	require.NoError(t, err)
	d := confirmed(t, effects)

	tt := []struct {
		name      string
		requester int64
		token     int64
		reason    service.RejectReason
	}{
		{name: "stranger", requester: 11, token: d.Token, reason: service.Unauthorized},
		{name: "wrong token", requester: 10, token: d.Token + 1, reason: service.Unauthorized},
		{name: "unknown post", requester: owner, reason: service.InvalidPost},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			id := d.PostID
			if tc.reason == service.InvalidPost {
				id = 5
			}

			effects, err := e.srv.Delete(ctx, service.DeleteRequest{PostID: id, Requester: tc.requester, Token: tc.token})
			require.NoError(t, err)
			require.Equal(t, tc.reason, rejection(t, effects))
		})
	}

	effects, err = e.srv.Delete(ctx, service.DeleteRequest{PostID: d.PostID, Requester: 10, Token: d.Token})
	require.NoError(t, err)
	require.Equal(t, []service.Effect{
		service.Delete(d.PostID),
		service.Confirm(service.Details{Action: service.Deleted, PostID: d.PostID}),
	}, effects)

	_, err = e.srv.GetPost(ctx, d.PostID)
	require.True(t, errors.Is(err, service.ErrNotFound))
	require.Empty(t, e.db.AutoDelete())
}

func TestSrv_Delete_Owner(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	effects, err := e.srv.Delete(ctx, service.DeleteRequest{PostID: 1, Requester: owner})
	require.NoError(t, err)
	require.Equal(t, service.Deleted, confirmed(t, effects).Action)
}

func TestSrv_Vote(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10, Action: "like"})
	require.NoError(t, err)
	require.Equal(t, []service.Effect{
		service.Confirm(service.Details{Action: service.Voted, PostID: 1}),
		service.UpdatedCounts(1, 1, 0),
	}, effects)

	effects, err = e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10, Action: "dislike"})
	require.NoError(t, err)
	require.Equal(t, service.UpdatedCounts(1, 0, 1), effects[1])

	effects, err = e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10, Action: "dislike"})
	require.NoError(t, err)
	require.Equal(t, []service.Effect{
		service.Confirm(service.Details{Action: service.Retracted, PostID: 1}),
		service.UpdatedCounts(1, 0, 0),
	}, effects)

	p, err := e.srv.GetPost(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, p.Rating)
	require.Empty(t, p.Feedbacks)
}

func TestSrv_Vote_Rejected(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)

	effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10, Action: "love"})
	require.NoError(t, err)
	require.Equal(t, service.InvalidAction, rejection(t, effects))

	effects, err = e.srv.Vote(ctx, service.VoteRequest{PostID: 2, Voter: 10, Action: "like"})
	require.NoError(t, err)
	require.Equal(t, service.InvalidPost, rejection(t, effects))
}

func TestSrv_Vote_PinOnce(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)
	e.allowSave()

	var pins, unpins int
	for i := int64(0); i < 4; i++ {
		effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10 + i, Action: "like"})
		require.NoError(t, err)
		pins += count(effects, service.PinEffect)
	}
	require.Equal(t, 1, pins)

	// 3 of 4 likers switch to dislike, rating goes 2, 0, -2
	for i := int64(0); i < 3; i++ {
		effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10 + i, Action: "dislike"})
		require.NoError(t, err)
		unpins += count(effects, service.UnpinEffect)
		require.Zero(t, count(effects, service.DeleteEffect))
	}
	require.Equal(t, 1, unpins)

	p, err := e.srv.GetPost(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, -2, p.Rating)
	require.False(t, p.Pinned)
}

func TestSrv_Vote_DeletedByCommunity(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1, 2)
	e.allowSave()

	for i := int64(0); i < 2; i++ {
		effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10 + i, Action: "dislike"})
		require.NoError(t, err)
		require.Zero(t, count(effects, service.DeleteEffect))
	}

	effects, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 12, Action: "dislike"})
	require.NoError(t, err)
	require.Equal(t, service.Delete(1), effects[len(effects)-1])

	_, ok := e.db.Post(1)
	require.False(t, ok)
	require.Equal(t, []entities.PostID{2}, e.db.AutoDelete())
}

func TestSrv_Vote_SafeLimit(t *testing.T) {
	c := testConfig()
	c.AutoDeleteSafeLimit = 2
	c.PinLikeLimit = 10

	e := newEnv(t, c)
	e.seed(1, 2)
	e.allowSave()

	for i := int64(0); i < 2; i++ {
		_, err := e.srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10 + i, Action: "like"})
		require.NoError(t, err)
	}

	list, err := e.srv.ListQueue(ctx)
	require.NoError(t, err)
	require.Equal(t, []entities.PostID{2}, list)

	_, err = e.srv.GetPost(ctx, 1)
	require.NoError(t, err)
}

func TestSrv_SaveFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := storage.NewMockStorage(ctrl)
	m := media.NewMockStore(ctrl)

	fresh := func() *entities.Database {
		db := entities.NewDatabase()
		db.AddPost(1, "secret", "", time.Now())
		db.ResetChanges()
		return db
	}

	first, second := fresh(), fresh()

	gomock.InOrder(
		s.EXPECT().Load(gomock.Any()).Return(first, nil),
		s.EXPECT().Save(gomock.Any(), first).Return(context.DeadlineExceeded),
		s.EXPECT().Load(gomock.Any()).Return(second, nil),
		s.EXPECT().Save(gomock.Any(), second).Return(nil),
	)

	srv, err := New(testConfig(), pseudonym.New(42, 16), s, session.NewMemoryStore(16, time.Hour), m, nil, clockwork.NewFakeClock())
	require.NoError(t, err)

	effects, err := srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 10, Action: "like"})
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Nil(t, effects)

	effects, err = srv.Vote(ctx, service.VoteRequest{PostID: 1, Voter: 11, Action: "like"})
	require.NoError(t, err)
	require.Equal(t, service.UpdatedCounts(1, 1, 0), effects[1])
}

func TestSrv_LoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Load(gomock.Any()).Return(nil, context.Canceled)

	srv, err := New(testConfig(), pseudonym.New(42, 16), s, nil, nil, nil, clockwork.NewFakeClock())
	require.NoError(t, err)

	_, err = srv.ListQueue(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSrv_SessionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	db := entities.NewDatabase()
	s := storage.NewMockStorage(ctrl)
	s.EXPECT().Load(gomock.Any()).Return(db, nil)

	ss := sessionmock.NewMockStore(ctrl)
	ss.EXPECT().Get(gomock.Any(), gomock.Any()).Return(entities.PostID(0), false, context.DeadlineExceeded)
	ss.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(false, context.DeadlineExceeded)

	srv, err := New(testConfig(), pseudonym.New(42, 16), s, ss, nil, nil, clockwork.NewFakeClock())
	require.NoError(t, err)

	effects, err := srv.NewPost(ctx, text(10))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Nil(t, effects)
	require.True(t, db.Changes().Empty())

	effects, err = srv.Cancel(ctx, 10)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Nil(t, effects)
}

func TestSrv_GetPost(t *testing.T) {
	e := newEnv(t, testConfig())
	e.seed(1)

	p, err := e.srv.GetPost(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, entities.PostID(1), p.ID)

	p.Feedbacks["x"] = entities.Like
	p.Rating = 100

	orig, _ := e.db.Post(1)
	require.Zero(t, orig.Rating)
	require.Empty(t, orig.Feedbacks)

	_, err = e.srv.GetPost(ctx, 2)
	require.True(t, errors.Is(err, service.ErrNotFound))
}
