package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/tgchan/tgchan/internal/entities"
	"github.com/tgchan/tgchan/internal/service"
)

var rejectStatus = map[service.RejectReason]int{
	service.InvalidPost:   http.StatusNotFound,
	service.Unauthorized:  http.StatusForbidden,
	service.InvalidAction: http.StatusBadRequest,
}

func postID(r *http.Request) (entities.PostID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return entities.PostID(id), true
}

func writeEffects(w http.ResponseWriter, effects []service.Effect) {
	status := http.StatusOK
	if reason, ok := service.Rejection(effects); ok {
		status = http.StatusConflict
		if s, ok := rejectStatus[reason]; ok {
			status = s
		}
	}

	writeOK(w, status, EffectsResponse{Effects: effects})
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id} Board GetPost
	//
	// Get post state by id.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: integer
	// responses:
	//   '200':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := s.s.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeInternalErrorf(r.Context(), w, "failed to get post: %s", err.Error())
		return
	}

	queue, err := s.s.ListQueue(r.Context())
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to list queue: %s", err.Error())
		return
	}

	var queued bool
	for _, v := range queue {
		if v == id {
			queued = true
			break
		}
	}

	writeOK(w, http.StatusOK, toAPIPost(p, queued))
}

func (s server) listQueue(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /queue Board ListQueue
	//
	// Return posts waiting for auto-delete. Response is cached for 5 seconds.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Queue
	//     schema:
	//       "$ref": "#/definitions/ListQueueResponse"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	queue, err := s.s.ListQueue(r.Context())
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to list queue: %s", err.Error())
		return
	}

	resp := ListQueueResponse{Posts: make([]int64, len(queue))}
	for i, v := range queue {
		resp.Posts[i] = int64(v)
	}

	writeOK(w, http.StatusOK, resp)
}

func (s server) vote(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/votes Board Vote
	//
	// Like or dislike post on behalf of identity. Repeated vote retracts it.
	//
	// ---
	// security:
	// - bearer: []
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: integer
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/VoteRequest"
	// responses:
	//   '200':
	//     description: Effects
	//     schema:
	//       "$ref": "#/definitions/EffectsResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '401':
	//     description: missing or wrong admin token
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/EffectsResponse"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Identity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid identity")
		return
	}

	effects, err := s.s.Vote(r.Context(), service.VoteRequest{
		PostID: id,
		Voter:  req.Identity,
		Action: req.Action,
	})
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to vote: %s", err.Error())
		return
	}

	writeEffects(w, effects)
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Board DeletePost
	//
	// Delete post with author's token. Owner identity does not need a token.
	//
	// ---
	// security:
	// - bearer: []
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: integer
	// - name: request
	//   in: body
	//   required: true
	//   schema:
	//     "$ref": "#/definitions/DeleteRequest"
	// responses:
	//   '200':
	//     description: Effects
	//     schema:
	//       "$ref": "#/definitions/EffectsResponse"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '401':
	//     description: missing or wrong admin token
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '403':
	//     description: token mismatch
	//     schema:
	//       "$ref": "#/definitions/EffectsResponse"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/EffectsResponse"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	id, ok := postID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Identity <= 0 {
		writeError(w, http.StatusBadRequest, "invalid identity")
		return
	}

	effects, err := s.s.Delete(r.Context(), service.DeleteRequest{
		PostID:    id,
		Requester: req.Identity,
		Token:     req.Token,
	})
	if err != nil {
		writeInternalErrorf(r.Context(), w, "failed to delete post: %s", err.Error())
		return
	}

	writeEffects(w, effects)
}
