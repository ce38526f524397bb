// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "postgres")
var errBeginCalledWithinTx = errors.New("can not begin tx within tx")

const foreignKeyViolation = "23503"

type pg struct {
	ext sqlx.ExtContext
}

type postDTO struct {
	ID        int64     `db:"id"`
	Media     string    `db:"media"`
	Secret    string    `db:"secret"`
	Rating    int       `db:"rating"`
	Pinned    bool      `db:"pinned"`
	CreatedAt time.Time `db:"created_at"`
}

type feedbackDTO struct {
	PostID    int64  `db:"post_id"`
	Pseudonym string `db:"pseudonym"`
	Vote      int8   `db:"vote"`
}

type timingDTO struct {
	Pseudonym  string    `db:"pseudonym"`
	NextPostAt time.Time `db:"next_post_at"`
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func (s pg) inTx(ctx context.Context, f func(s pg) error) error {
	db, ok := s.ext.(*sqlx.DB)
	if !ok {
		return errBeginCalledWithinTx
	}

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to create tx: %w", err)
	}

	if err := f(pg{ext: tx}); err != nil {
		if err := tx.Rollback(); err != nil {
			log.WithError(err).Error("failed to rollback tx")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

func (s pg) Ping(ctx context.Context) error {
	if _, err := s.ext.ExecContext(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) Load(ctx context.Context) (*entities.Database, error) {
	var db *entities.Database

	if err := s.inTx(ctx, func(s pg) error {
		posts, err := s.getPosts(ctx)
		if err != nil {
			return fmt.Errorf("failed to get posts: %w", err)
		}

		timings, err := s.getTimings(ctx)
		if err != nil {
			return fmt.Errorf("failed to get timings: %w", err)
		}

		queue, err := s.getQueue(ctx)
		if err != nil {
			return fmt.Errorf("failed to get autodelete queue: %w", err)
		}

		db, err = entities.Restore(posts, timings, queue)
		if err != nil {
			return fmt.Errorf("failed to restore database: %w", err)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return db, nil
}

func (s pg) Save(ctx context.Context, db *entities.Database) error {
	c := db.Changes()
	if c.Empty() {
		return nil
	}

	if err := s.inTx(ctx, func(s pg) error {
		if err := s.deletePosts(ctx, sortedIDs(c.Removed)); err != nil {
			return fmt.Errorf("failed to delete posts: %w", err)
		}

		for _, id := range sortedIDs(c.Posts) {
			p, ok := db.Post(entities.PostID(id))
			if !ok {
				continue
			}

			if err := s.upsertPost(ctx, p); err != nil {
				return fmt.Errorf("failed to save post %d: %w", id, err)
			}
		}

		for k := range c.Timings {
			if err := s.saveTiming(ctx, db, k); err != nil {
				return fmt.Errorf("failed to save timing: %w", err)
			}
		}

		if c.Queue {
			if err := s.saveQueue(ctx, db.AutoDelete()); err != nil {
				return fmt.Errorf("failed to save autodelete queue: %w", err)
			}
		}

		return nil
	}); err != nil {
		return err
	}

	db.ResetChanges()

	return nil
}

func (s pg) getPosts(ctx context.Context) ([]*entities.Post, error) {
	var pp []*postDTO
	if err := sqlx.SelectContext(ctx, s.ext, &pp, `
			SELECT id, media, secret, rating, pinned, created_at FROM post
		`); err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	var ff []*feedbackDTO
	if err := sqlx.SelectContext(ctx, s.ext, &ff, `
			SELECT post_id, pseudonym, vote FROM feedback
		`); err != nil {
		return nil, fmt.Errorf("failed to query feedbacks: %w", err)
	}

	m := make(map[entities.PostID]*entities.Post, len(pp))
	out := make([]*entities.Post, len(pp))
	for i, v := range pp {
		out[i] = &entities.Post{
			ID:        entities.PostID(v.ID),
			Feedbacks: map[entities.Pseudonym]entities.Vote{},
			Media:     v.Media,
			Secret:    entities.Pseudonym(v.Secret),
			Rating:    v.Rating,
			Pinned:    v.Pinned,
			CreatedAt: v.CreatedAt,
		}
		m[out[i].ID] = out[i]
	}

	for _, v := range ff {
		if p, ok := m[entities.PostID(v.PostID)]; ok {
			p.Feedbacks[entities.Pseudonym(v.Pseudonym)] = entities.Vote(v.Vote)
		}
	}

	return out, nil
}

func (s pg) getTimings(ctx context.Context) (map[entities.Pseudonym]time.Time, error) {
	var tt []*timingDTO
	if err := sqlx.SelectContext(ctx, s.ext, &tt, `SELECT pseudonym, next_post_at FROM timing`); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make(map[entities.Pseudonym]time.Time, len(tt))
	for _, v := range tt {
		out[entities.Pseudonym(v.Pseudonym)] = v.NextPostAt
	}

	return out, nil
}

func (s pg) getQueue(ctx context.Context) ([]entities.PostID, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, s.ext, &ids, `SELECT post_id FROM autodelete ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]entities.PostID, len(ids))
	for i, v := range ids {
		out[i] = entities.PostID(v)
	}

	return out, nil
}

func (s pg) deletePosts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.ext.ExecContext(ctx, `DELETE FROM post WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) upsertPost(ctx context.Context, p *entities.Post) error {
	post := postDTO{
		ID:        int64(p.ID),
		Media:     p.Media,
		Secret:    string(p.Secret),
		Rating:    p.Rating,
		Pinned:    p.Pinned,
		CreatedAt: p.CreatedAt.UTC(),
	}

	if _, err := sqlx.NamedExecContext(ctx, s.ext,
		`
			INSERT INTO post(id, media, secret, rating, pinned, created_at)
			VALUES(:id, :media, :secret, :rating, :pinned, :created_at)
			ON CONFLICT(id) DO UPDATE SET
			rating=excluded.rating, pinned=excluded.pinned
		`, post,
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if _, err := s.ext.ExecContext(ctx, `DELETE FROM feedback WHERE post_id=$1`, post.ID); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if len(p.Feedbacks) == 0 {
		return nil
	}

	pseudonyms := make([]string, 0, len(p.Feedbacks))
	votes := make([]int64, 0, len(p.Feedbacks))
	for k, v := range p.Feedbacks {
		pseudonyms = append(pseudonyms, string(k))
		votes = append(votes, int64(v))
	}

	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO feedback(post_id, pseudonym, vote)
			SELECT $1, unnest($2::text[]), unnest($3::smallint[])
		`, post.ID, pq.Array(pseudonyms), pq.Array(votes),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) saveTiming(ctx context.Context, db *entities.Database, p entities.Pseudonym) error {
	t, ok := db.NextPostAt(p)
	if !ok {
		if _, err := s.ext.ExecContext(ctx, `DELETE FROM timing WHERE pseudonym=$1`, string(p)); err != nil {
			return fmt.Errorf("failed to exec: %w", err)
		}

		return nil
	}

	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO timing(pseudonym, next_post_at) VALUES($1, $2)
			ON CONFLICT(pseudonym) DO UPDATE SET next_post_at=excluded.next_post_at
		`, string(p), t.UTC(),
	); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func (s pg) saveQueue(ctx context.Context, queue []entities.PostID) error {
	if _, err := s.ext.ExecContext(ctx, `DELETE FROM autodelete`); err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if len(queue) == 0 {
		return nil
	}

	ids := make([]int64, len(queue))
	for i, v := range queue {
		ids[i] = int64(v)
	}

	if _, err := s.ext.ExecContext(ctx, `
			INSERT INTO autodelete(position, post_id)
			SELECT ord, id FROM unnest($1::bigint[]) WITH ORDINALITY AS q(id, ord)
		`, pq.Array(ids),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return storage.ErrNotFound
		}

		return fmt.Errorf("failed to exec: %w", err)
	}

	return nil
}

func sortedIDs(m map[entities.PostID]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, int64(id))
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
