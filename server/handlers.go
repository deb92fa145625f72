package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/UTSAV1434/AfterHours/auth"
	"github.com/UTSAV1434/AfterHours/domain"
	apperrors "github.com/UTSAV1434/AfterHours/errors"
	"github.com/UTSAV1434/AfterHours/storage"
)

type createPostRequest struct {
	Content  string `json:"content" validate:"required"`
	Category string `json:"category"`
}

type reactRequest struct {
	Emoji         string `json:"emoji" validate:"required"`
	UserID        string `json:"userId" validate:"required"`
	PreviousEmoji string `json:"previousEmoji"`
}

type timingsRequest struct {
	PostingWindowStart *int   `json:"postingWindowStart" validate:"required"`
	PostingWindowEnd   *int   `json:"postingWindowEnd" validate:"required"`
	NightModeStart     *int   `json:"nightModeStart" validate:"required"`
	NightModeEnd       *int   `json:"nightModeEnd" validate:"required"`
	AdminPassword      string `json:"adminPassword"`
}

type adminAuthRequest struct {
	Password string `json:"password" validate:"required"`
}

func (s *Server) decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return apperrors.NewValidation("body", "must be valid JSON")
	}
	if err := s.validate.Struct(into); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			field := fields[0]
			return apperrors.NewValidation(jsonName(field), "is required")
		}
		return apperrors.NewValidation("request", "is invalid")
	}
	return nil
}

// jsonName lowers the struct field name to its json spelling; enough for
// the handful of request shapes here.
func jsonName(field validator.FieldError) string {
	name := field.Field()
	return strings.ToLower(name[:1]) + name[1:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	store := "ok"
	if err := s.pingStore(r.Context()); err != nil {
		store = "unreachable"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": store})
}

// pingStore issues the cheapest possible read; a missing key still
// proves the backend answered.
func (s *Server) pingStore(ctx context.Context) error {
	_, err := s.kv.Get(ctx, "config:timings")
	if err != nil && err != storage.ErrKeyNotFound {
		return err
	}
	return nil
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var body createPostRequest
	if err := s.decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}

	post, err := s.posts.Submit(r.Context(), body.Content, body.Category)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, s.log, apperrors.NewValidation("q", "is required"))
		return
	}
	posts, err := s.posts.Search(r.Context(), query)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	var body reactRequest
	if err := s.decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}

	post, err := s.reactions.Apply(r.Context(),
		r.PathValue("id"), body.Emoji, body.UserID, body.PreviousEmoji)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.posts.Delete(r.Context(), id); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Compute(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	count, err := s.posts.Purge(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deletedCount": count})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	postingAllowed, nightMode, err := s.posts.Mode(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"postingAllowed": postingAllowed,
		"nightMode":      nightMode,
	})
}

func (s *Server) handleGetTimings(w http.ResponseWriter, r *http.Request) {
	timings, err := s.timings.Get(r.Context())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timings": timings})
}

func (s *Server) handleUpdateTimings(w http.ResponseWriter, r *http.Request) {
	var body timingsRequest
	if err := s.decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}
	if !s.isAdmin(r, body.AdminPassword) {
		writeError(w, s.log, apperrors.ErrUnauthorized)
		return
	}

	timings := domain.Timings{
		PostingWindowStart: *body.PostingWindowStart,
		PostingWindowEnd:   *body.PostingWindowEnd,
		NightModeStart:     *body.NightModeStart,
		NightModeEnd:       *body.NightModeEnd,
	}
	if err := s.timings.Set(r.Context(), timings); err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "timings": timings})
}

func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	var body adminAuthRequest
	if err := s.decode(r, &body); err != nil {
		writeError(w, s.log, err)
		return
	}

	ok, err := auth.VerifySecret(body.Password, s.adminHash)
	if err != nil || !ok {
		writeError(w, s.log, apperrors.ErrUnauthorized)
		return
	}
	token, err := s.tokens.Generate()
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

// isAdmin accepts either a bearer session token or the shared secret in
// the request body.
func (s *Server) isAdmin(r *http.Request, password string) bool {
	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		if _, err := s.tokens.Validate(token); err == nil {
			return true
		}
	}
	if password == "" {
		return false
	}
	ok, err := auth.VerifySecret(password, s.adminHash)
	return err == nil && ok
}
