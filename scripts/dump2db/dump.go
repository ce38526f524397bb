package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgchan/tgchan/internal/entities"
)

// dump is a JSON export of the legacy bot database.
type dump struct {
	Posts map[string]struct {
		Feedbacks map[string]int `json:"feedbacks"`
		Media     *string        `json:"media"`
		Shash     string         `json:"shash"`
		Rating    int            `json:"rating"`
	} `json:"posts"`
	// Timings are unix seconds.
	Timings    map[string]float64 `json:"timings"`
	Autodelete []int64            `json:"autodelete"`
}

func readDump(r io.Reader) (*dump, error) {
	var d dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dump: %w", err)
	}

	return &d, nil
}

// build converts dump into database with every record journaled, so storage saves all of it.
// Ratings are recalculated from feedbacks; broken records are skipped with a warning.
func (d *dump) build(now time.Time) (*entities.Database, error) {
	db := entities.NewDatabase()

	ids := make([]int64, 0, len(d.Posts))
	for k := range d.Posts {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid post id %q: %w", k, err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p := d.Posts[strconv.FormatInt(id, 10)]
		pid := entities.PostID(id)

		var media string
		if p.Media != nil {
			media = *p.Media
		}

		db.AddPost(pid, entities.Pseudonym(p.Shash), media, now)

		var rating int
		for voter, v := range p.Feedbacks {
			vote := entities.Vote(v)
			if !vote.Valid() {
				logrus.WithField("post", id).Warnf("skip invalid feedback %d", v)
				continue
			}
			db.SetFeedback(pid, entities.Pseudonym(voter), vote, vote.Weight())
			rating += vote.Weight()
		}

		if rating != p.Rating {
			logrus.WithField("post", id).Warnf("rating %d is recalculated to %d", p.Rating, rating)
		}
	}

	for _, id := range d.Autodelete {
		if !db.PushAutoDelete(entities.PostID(id)) {
			logrus.WithField("post", id).Warn("skip unknown or duplicated auto-delete entry")
		}
	}

	for k, v := range d.Timings {
		sec, frac := int64(v), v-float64(int64(v))
		if t := time.Unix(sec, int64(frac*float64(time.Second))); t.After(now) {
			db.SetNextPostAt(entities.Pseudonym(k), t)
		}
	}

	return db, nil
}
