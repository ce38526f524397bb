package board

import (
	"github.com/tgchan/tgchan/internal/entities"
)

// Queue is a bounded FIFO of recently created posts which expire when capacity is exceeded.
type Queue struct {
	Capacity int
}

// Expiring returns posts which will be evicted by the next Append, oldest first.
func (q Queue) Expiring(db *entities.Database) []entities.PostID {
	ids := db.AutoDelete()

	n := len(ids) + 1 - q.Capacity
	if n <= 0 {
		return nil
	}
	if n > len(ids) {
		n = len(ids)
	}

	return ids[:n]
}

// IsExpiring returns true if the next Append evicts the post.
func (q Queue) IsExpiring(db *entities.Database, id entities.PostID) bool {
	for _, v := range q.Expiring(db) {
		if v == id {
			return true
		}
	}

	return false
}

// Append puts post to the queue and removes the oldest posts while queue exceeds capacity.
// Removed posts are returned in eviction order.
func (q Queue) Append(db *entities.Database, id entities.PostID) []*entities.Post {
	db.PushAutoDelete(id)

	var out []*entities.Post
	for db.AutoDeleteLen() > q.Capacity {
		evicted, ok := db.PopAutoDelete()
		if !ok {
			break
		}

		if p, ok := db.RemovePost(evicted); ok {
			out = append(out, p)
		}
	}

	return out
}
