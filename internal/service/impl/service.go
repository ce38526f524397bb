// Package impl is implementation of service interface.
package impl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/tgchan/tgchan/internal/board"
	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/media"
	"github.com/tgchan/tgchan/internal/pseudonym"
	"github.com/tgchan/tgchan/internal/service"
	"github.com/tgchan/tgchan/internal/session"
	"github.com/tgchan/tgchan/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

// srv serializes all events with mu. db is the last committed database, nil means it should be loaded.
type srv struct {
	mu sync.Mutex
	db *entities.Database

	c  service.Config
	h  *pseudonym.Hasher
	s  storage.Storage
	ss session.Store
	m  media.Store
	p  service.Publisher
	cl clockwork.Clock

	auth       board.Authorizer
	limiter    board.RateLimiter
	queue      board.Queue
	thresholds board.Thresholds
}

// New creates new instance of service.
func New(
	c service.Config,
	h *pseudonym.Hasher,
	s storage.Storage,
	ss session.Store,
	m media.Store,
	p service.Publisher,
	cl clockwork.Clock,
) (service.Service, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if !pseudonym.ValidSeed(h.Seed()) {
		return nil, fmt.Errorf("%w: secret seed is out of [-%d, %d]", service.ErrInvalidConfig, pseudonym.MaxSeed, pseudonym.MaxSeed)
	}

	return &srv{
		c:  c,
		h:  h,
		s:  s,
		ss: ss,
		m:  m,
		p:  p,
		cl: cl,

		auth:    board.Authorizer{Hasher: h, Owner: c.OwnerIdentity},
		limiter: board.RateLimiter{Interval: c.PostInterval, Owner: c.OwnerIdentity},
		queue:   board.Queue{Capacity: c.AutoDeleteCount},
		thresholds: board.Thresholds{
			Pin:    c.PinLikeLimit,
			Unpin:  c.UnpinDislikeLimit,
			Delete: c.DeleteDislikeLimit,
			Safe:   c.AutoDeleteSafeLimit,
		},
	}, nil
}

func (s *srv) database(ctx context.Context) (*entities.Database, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := s.s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load database: %w", err)
	}

	s.db = db

	return db, nil
}

// commit saves database and cleans up removed posts' media.
// On failure cached database is dropped, so the next event starts from the last saved state.
func (s *srv) commit(ctx context.Context, db *entities.Database, removed []*entities.Post) error {
	if err := s.s.Save(ctx, db); err != nil {
		s.db = nil
		return fmt.Errorf("failed to save database: %w", err)
	}

	queueLength.Set(float64(db.AutoDeleteLen()))

	for _, p := range removed {
		if err := s.m.Remove(p.Media); err != nil {
			log.WithError(err).WithField("post", p.ID).Warn("failed to remove media")
		}
	}

	return nil
}

func reject(reason service.RejectReason) []service.Effect {
	eventsRejected.WithLabelValues(string(reason)).Inc()
	return []service.Effect{service.Reject(reason)}
}

func failed(event string, err error) ([]service.Effect, error) {
	eventsFailed.WithLabelValues(event).Inc()
	return nil, err
}

func (s *srv) mediaLimit(m *service.Media) int64 {
	if m.Kind == service.VideoMedia {
		return s.c.MaxVideoSize
	}

	return s.c.MaxImageSize
}

func validContent(c service.Content) bool {
	if c.Media == nil {
		return c.Text != ""
	}

	return c.Media.Kind == service.PhotoMedia || c.Media.Kind == service.VideoMedia
}

// replyTarget returns explicit reply target or the one from author's reply mode.
func (s *srv) replyTarget(ctx context.Context, r service.NewPostRequest, author entities.Pseudonym) (*entities.PostID, error) {
	if r.ReplyTo != nil {
		return r.ReplyTo, nil
	}

	id, ok, err := s.ss.Get(ctx, author)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	return &id, nil
}

// admit checks whether the post can be accepted now. Empty reason means it can.
func (s *srv) admit(
	ctx context.Context,
	db *entities.Database,
	r service.NewPostRequest,
	author entities.Pseudonym,
	replyTo *entities.PostID,
) service.RejectReason {
	if replyTo != nil {
		if _, ok := db.Post(*replyTo); !ok {
			s.leaveReplyMode(ctx, author)
			return service.InvalidPost
		}
	}

	if m := r.Content.Media; m != nil && m.Size > s.mediaLimit(m) {
		return service.MediaTooLarge
	}

	if !s.limiter.Allow(db, r.Author, author, s.cl.Now()) {
		return service.TooSoon
	}

	if replyTo != nil && s.queue.IsExpiring(db, *replyTo) {
		s.leaveReplyMode(ctx, author)
		return service.ReplyTargetExpiring
	}

	return ""
}

// NewPost checks the post under lock, stages its attachment without holding the lock,
// then checks it again and publishes. Only publishing and registration block other events.
func (s *srv) NewPost(ctx context.Context, r service.NewPostRequest) ([]service.Effect, error) {
	if !validContent(r.Content) {
		return reject(service.InvalidContent), nil
	}

	author := s.h.Identity(r.Author)

	replyTo, reason, err := s.precheck(ctx, r, author)
	if err != nil {
		return failed("post", err)
	}
	if reason != "" {
		return reject(reason), nil
	}

	secret, token, err := s.auth.Issue(r.Author)
	if err != nil {
		return failed("post", fmt.Errorf("failed to issue token: %w", err))
	}

	var staged string
	if m := r.Content.Media; m != nil {
		if staged, err = s.p.Stage(ctx, m, secret, s.mediaLimit(m)); err != nil {
			if errors.Is(err, service.ErrMediaTooLarge) {
				return reject(service.MediaTooLarge), nil
			}
			return failed("post", fmt.Errorf("failed to stage media: %w", err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	effects, err := s.publish(ctx, r, author, replyTo, secret, token, staged)
	if staged != "" && (err != nil || isRejection(effects)) {
		s.removeMedia(staged)
	}

	return effects, err
}

func (s *srv) precheck(
	ctx context.Context,
	r service.NewPostRequest,
	author entities.Pseudonym,
) (*entities.PostID, service.RejectReason, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return nil, "", err
	}

	replyTo, err := s.replyTarget(ctx, r, author)
	if err != nil {
		return nil, "", err
	}

	return replyTo, s.admit(ctx, db, r, author, replyTo), nil
}

func isRejection(effects []service.Effect) bool {
	_, ok := service.Rejection(effects)
	return ok
}

func (s *srv) removeMedia(ref string) {
	if err := s.m.Remove(ref); err != nil {
		log.WithError(err).Warn("failed to remove staged media")
	}
}

// publish must be called with mu held.
func (s *srv) publish(
	ctx context.Context,
	r service.NewPostRequest,
	author entities.Pseudonym,
	replyTo *entities.PostID,
	secret entities.Pseudonym,
	token int64,
	staged string,
) ([]service.Effect, error) {
	db, err := s.database(ctx)
	if err != nil {
		return failed("post", err)
	}

	if reason := s.admit(ctx, db, r, author, replyTo); reason != "" {
		return reject(reason), nil
	}

	pub, err := s.p.Publish(ctx, service.Publication{
		Content: r.Content,
		ReplyTo: replyTo,
		Secret:  secret,
		Media:   staged,
	})
	if err != nil {
		return failed("post", fmt.Errorf("failed to publish post: %w", err))
	}

	now := s.cl.Now()
	db.AddPost(pub.ID, secret, pub.Media, now)
	s.limiter.Commit(db, r.Author, author, now)
	evicted := s.queue.Append(db, pub.ID)

	if err := s.commit(ctx, db, evicted); err != nil {
		log.WithError(err).WithField("post", pub.ID).Error("post is published but not registered")
		return failed("post", err)
	}

	s.leaveReplyMode(ctx, author)

	postsCreated.Inc()
	log.WithField("post", pub.ID).Infof("%s posted a message", author)

	effects := make([]service.Effect, 0, len(evicted)+1)
	for _, p := range evicted {
		postsRemoved.WithLabelValues("expired").Inc()
		log.WithField("post", p.ID).Info("auto-deleting message")
		effects = append(effects, service.Delete(p.ID))
	}

	return append(effects, service.Confirm(service.Details{
		Action:  service.Posted,
		PostID:  pub.ID,
		ReplyTo: replyTo,
		Token:   token,
		Secret:  secret,
	})), nil
}

func (s *srv) leaveReplyMode(ctx context.Context, p entities.Pseudonym) {
	if _, err := s.ss.Delete(ctx, p); err != nil {
		log.WithError(err).Warn("failed to delete session")
	}
}

func (s *srv) Vote(ctx context.Context, r service.VoteRequest) ([]service.Effect, error) {
	action, err := entities.ParseVote(r.Action)
	if err != nil {
		return reject(service.InvalidAction), nil
	}

	voter := s.h.Identity(r.Voter)

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return failed("vote", err)
	}

	o, ok := board.ApplyVote(db, r.PostID, voter, action)
	if !ok {
		return reject(service.InvalidPost), nil
	}

	confirmed := service.Voted
	if o.Retracted {
		confirmed = service.Retracted
	}

	effects := []service.Effect{
		service.Confirm(service.Details{Action: confirmed, PostID: r.PostID}),
		service.UpdatedCounts(r.PostID, o.Likes, o.Dislikes),
	}

	p, _ := db.Post(r.PostID)
	v := s.thresholds.Evaluate(p, db.InAutoDelete(r.PostID))

	var removed []*entities.Post
	switch {
	case v.Delete:
		p, _ := db.RemovePost(r.PostID)
		removed = append(removed, p)
		effects = append(effects, service.Delete(r.PostID))
	default:
		if v.Pin {
			db.SetPinned(r.PostID, true)
			effects = append(effects, service.Pin(r.PostID))
		}
		if v.Unpin {
			db.SetPinned(r.PostID, false)
			effects = append(effects, service.Unpin(r.PostID))
		}
		if v.Dequeue {
			db.RemoveAutoDelete(r.PostID)
		}
	}

	if err := s.commit(ctx, db, removed); err != nil {
		return failed("vote", err)
	}

	votesApplied.WithLabelValues(string(confirmed) + "_" + action.String()).Inc()

	l := log.WithField("post", r.PostID).WithField("rating", o.Rating)
	if v.Delete {
		postsRemoved.WithLabelValues("disliked").Inc()
		l.Info("message deleted by community")
	}
	if v.Dequeue {
		l.Info("message removed from auto-delete queue")
	}

	return effects, nil
}

func (s *srv) Delete(ctx context.Context, r service.DeleteRequest) ([]service.Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return failed("delete", err)
	}

	p, ok := db.Post(r.PostID)
	if !ok {
		return reject(service.InvalidPost), nil
	}

	if !s.auth.Authorize(p, r.Requester, r.Token) {
		return reject(service.Unauthorized), nil
	}

	db.RemovePost(r.PostID)

	if err := s.commit(ctx, db, []*entities.Post{p}); err != nil {
		return failed("delete", err)
	}

	postsRemoved.WithLabelValues("deleted").Inc()
	log.WithField("post", r.PostID).Infof("%s deleted a message", p.Secret)

	return []service.Effect{
		service.Delete(r.PostID),
		service.Confirm(service.Details{Action: service.Deleted, PostID: r.PostID}),
	}, nil
}

func (s *srv) Reply(ctx context.Context, identity int64, id entities.PostID) ([]service.Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return failed("reply", err)
	}

	if _, ok := db.Post(id); !ok {
		return reject(service.InvalidPost), nil
	}

	if err := s.ss.Set(ctx, s.h.Identity(identity), id); err != nil {
		return failed("reply", fmt.Errorf("failed to set session: %w", err))
	}

	return []service.Effect{service.Confirm(service.Details{Action: service.Replying, PostID: id})}, nil
}

func (s *srv) Cancel(ctx context.Context, identity int64) ([]service.Effect, error) {
	ok, err := s.ss.Delete(ctx, s.h.Identity(identity))
	if err != nil {
		return failed("cancel", fmt.Errorf("failed to delete session: %w", err))
	}

	if !ok {
		return reject(service.NotReplying), nil
	}

	return []service.Effect{service.Confirm(service.Details{Action: service.Cancelled})}, nil
}

func (s *srv) ReplyTarget(ctx context.Context, identity int64) (*entities.PostID, error) {
	id, ok, err := s.ss.Get(ctx, s.h.Identity(identity))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if !ok {
		return nil, nil
	}

	return &id, nil
}

func (s *srv) GetPost(ctx context.Context, id entities.PostID) (*entities.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	p, ok := db.Post(id)
	if !ok {
		return nil, service.ErrNotFound
	}

	return p.Clone(), nil
}

func (s *srv) ListQueue(ctx context.Context) ([]entities.PostID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}

	return db.AutoDelete(), nil
}
