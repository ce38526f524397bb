// Package entities contains main entities of service.
package entities

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDatabase is returned by Restore when a snapshot is inconsistent.
var ErrInvalidDatabase = errors.New("invalid database")

// Pseudonym is a one-way hash of a platform identity.
type Pseudonym string

// PostID is the identifier assigned to a post by the transport.
type PostID int64

// Vote is a single community feedback value.
type Vote int8

const (
	// NoVote means there is no feedback.
	NoVote Vote = 0
	// Like ...
	Like Vote = 1
	// Dislike ...
	Dislike Vote = -1
)

// ParseVote converts transport action to Vote.
func ParseVote(s string) (Vote, error) {
	switch s {
	case "like":
		return Like, nil
	case "dislike":
		return Dislike, nil
	default:
		return NoVote, fmt.Errorf("unknown vote %q", s)
	}
}

// Valid returns true for Like and Dislike.
func (v Vote) Valid() bool {
	return v == Like || v == Dislike
}

// Weight returns signed rating contribution of vote.
func (v Vote) Weight() int {
	switch v {
	case Like:
		return 1
	case Dislike:
		return -1
	default:
		return 0
	}
}

// String ...
func (v Vote) String() string {
	switch v {
	case Like:
		return "like"
	case Dislike:
		return "dislike"
	default:
		return "none"
	}
}

// Post ...
type Post struct {
	ID        PostID
	Feedbacks map[Pseudonym]Vote
	Media     string
	Secret    Pseudonym
	Rating    int
	Pinned    bool
	CreatedAt time.Time
}

// Likes returns count of Like feedbacks.
func (p *Post) Likes() int {
	return p.count(Like)
}

// Dislikes returns count of Dislike feedbacks.
func (p *Post) Dislikes() int {
	return p.count(Dislike)
}

func (p *Post) count(v Vote) int {
	var n int
	for _, f := range p.Feedbacks {
		if f == v {
			n++
		}
	}

	return n
}

// Clone returns deep copy of post.
func (p *Post) Clone() *Post {
	out := *p
	out.Feedbacks = make(map[Pseudonym]Vote, len(p.Feedbacks))
	for k, v := range p.Feedbacks {
		out.Feedbacks[k] = v
	}

	return &out
}

func (p *Post) feedbackSum() int {
	var sum int
	for _, v := range p.Feedbacks {
		sum += v.Weight()
	}

	return sum
}

// Changes is a journal of database mutations since the last ResetChanges call.
type Changes struct {
	Posts   map[PostID]struct{}
	Removed map[PostID]struct{}
	Timings map[Pseudonym]struct{}
	Queue   bool
}

// Empty returns true if nothing was changed.
func (c Changes) Empty() bool {
	return len(c.Posts) == 0 && len(c.Removed) == 0 && len(c.Timings) == 0 && !c.Queue
}

func newChanges() Changes {
	return Changes{
		Posts:   map[PostID]struct{}{},
		Removed: map[PostID]struct{}{},
		Timings: map[Pseudonym]struct{}{},
	}
}

// Database is the whole board state: live posts, posting timings and the auto-delete queue.
// Every id in the auto-delete queue is a live post.
type Database struct {
	posts      map[PostID]*Post
	timings    map[Pseudonym]time.Time
	autodelete []PostID

	changes Changes
}

// NewDatabase returns empty database.
func NewDatabase() *Database {
	return &Database{
		posts:   map[PostID]*Post{},
		timings: map[Pseudonym]time.Time{},
		changes: newChanges(),
	}
}

// Restore builds database from persisted state.
func Restore(posts []*Post, timings map[Pseudonym]time.Time, queue []PostID) (*Database, error) {
	db := NewDatabase()

	for _, p := range posts {
		if _, ok := db.posts[p.ID]; ok {
			return nil, fmt.Errorf("%w: duplicated post %d", ErrInvalidDatabase, p.ID)
		}

		if p.Feedbacks == nil {
			p.Feedbacks = map[Pseudonym]Vote{}
		}

		for k, v := range p.Feedbacks {
			if !v.Valid() {
				return nil, fmt.Errorf("%w: post %d has invalid feedback from %s", ErrInvalidDatabase, p.ID, k)
			}
		}

		if sum := p.feedbackSum(); sum != p.Rating {
			return nil, fmt.Errorf("%w: post %d rating %d does not match feedbacks %d", ErrInvalidDatabase, p.ID, p.Rating, sum)
		}

		db.posts[p.ID] = p
	}

	for k, v := range timings {
		db.timings[k] = v
	}

	seen := make(map[PostID]struct{}, len(queue))
	for _, id := range queue {
		if _, ok := db.posts[id]; !ok {
			return nil, fmt.Errorf("%w: queued post %d does not exist", ErrInvalidDatabase, id)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: post %d queued twice", ErrInvalidDatabase, id)
		}
		seen[id] = struct{}{}
		db.autodelete = append(db.autodelete, id)
	}

	return db, nil
}

// Post returns post by id. Returned post must be changed only via Database methods.
func (d *Database) Post(id PostID) (*Post, bool) {
	p, ok := d.posts[id]
	return p, ok
}

// Posts returns ids of all live posts.
func (d *Database) Posts() []PostID {
	out := make([]PostID, 0, len(d.posts))
	for id := range d.posts {
		out = append(out, id)
	}

	return out
}

// AddPost inserts a new post. It does nothing if the post already exists.
func (d *Database) AddPost(id PostID, secret Pseudonym, media string, createdAt time.Time) {
	if _, ok := d.posts[id]; ok {
		return
	}

	d.posts[id] = &Post{
		ID:        id,
		Feedbacks: map[Pseudonym]Vote{},
		Media:     media,
		Secret:    secret,
		CreatedAt: createdAt,
	}

	delete(d.changes.Removed, id)
	d.changes.Posts[id] = struct{}{}
}

// RemovePost deletes post and its auto-delete queue entry.
// It returns removed post or false if there was no such post.
func (d *Database) RemovePost(id PostID) (*Post, bool) {
	p, ok := d.posts[id]
	if !ok {
		return nil, false
	}

	d.RemoveAutoDelete(id)
	delete(d.posts, id)

	delete(d.changes.Posts, id)
	d.changes.Removed[id] = struct{}{}

	return p, true
}

// SetFeedback sets voter's feedback (NoVote removes it) and shifts rating by delta.
func (d *Database) SetFeedback(id PostID, voter Pseudonym, v Vote, delta int) bool {
	p, ok := d.posts[id]
	if !ok {
		return false
	}

	if v == NoVote {
		delete(p.Feedbacks, voter)
	} else {
		p.Feedbacks[voter] = v
	}
	p.Rating += delta

	d.changes.Posts[id] = struct{}{}

	return true
}

// SetPinned ...
func (d *Database) SetPinned(id PostID, pinned bool) {
	p, ok := d.posts[id]
	if !ok || p.Pinned == pinned {
		return
	}

	p.Pinned = pinned
	d.changes.Posts[id] = struct{}{}
}

// AutoDelete returns a copy of the auto-delete queue, oldest first.
func (d *Database) AutoDelete() []PostID {
	out := make([]PostID, len(d.autodelete))
	copy(out, d.autodelete)
	return out
}

// AutoDeleteLen ...
func (d *Database) AutoDeleteLen() int {
	return len(d.autodelete)
}

// InAutoDelete returns true if post is in the auto-delete queue.
func (d *Database) InAutoDelete(id PostID) bool {
	for _, v := range d.autodelete {
		if v == id {
			return true
		}
	}

	return false
}

// PushAutoDelete appends a live post to the auto-delete queue.
func (d *Database) PushAutoDelete(id PostID) bool {
	if _, ok := d.posts[id]; !ok || d.InAutoDelete(id) {
		return false
	}

	d.autodelete = append(d.autodelete, id)
	d.changes.Queue = true

	return true
}

// PopAutoDelete removes and returns the oldest queue entry.
func (d *Database) PopAutoDelete() (PostID, bool) {
	if len(d.autodelete) == 0 {
		return 0, false
	}

	id := d.autodelete[0]
	d.autodelete = d.autodelete[1:]
	d.changes.Queue = true

	return id, true
}

// RemoveAutoDelete removes post from the auto-delete queue by value.
func (d *Database) RemoveAutoDelete(id PostID) bool {
	for i, v := range d.autodelete {
		if v == id {
			d.autodelete = append(d.autodelete[:i:i], d.autodelete[i+1:]...)
			d.changes.Queue = true
			return true
		}
	}

	return false
}

// NextPostAt returns time when pseudonym is allowed to post again.
func (d *Database) NextPostAt(p Pseudonym) (time.Time, bool) {
	t, ok := d.timings[p]
	return t, ok
}

// SetNextPostAt ...
func (d *Database) SetNextPostAt(p Pseudonym, t time.Time) {
	d.timings[p] = t
	d.changes.Timings[p] = struct{}{}
}

// ClearNextPostAt ...
func (d *Database) ClearNextPostAt(p Pseudonym) {
	if _, ok := d.timings[p]; !ok {
		return
	}

	delete(d.timings, p)
	d.changes.Timings[p] = struct{}{}
}

// PruneTimings removes all timings which are not after now.
func (d *Database) PruneTimings(now time.Time) int {
	var n int
	for k, v := range d.timings {
		if !v.After(now) {
			d.ClearNextPostAt(k)
			n++
		}
	}

	return n
}

// TimingsLen ...
func (d *Database) TimingsLen() int {
	return len(d.timings)
}

// Changes returns mutations journal.
func (d *Database) Changes() Changes {
	return d.changes
}

// ResetChanges clears mutations journal. Storage calls it after successful save.
func (d *Database) ResetChanges() {
	d.changes = newChanges()
}
