package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/UTSAV1434/AfterHours/auth"
	"github.com/UTSAV1434/AfterHours/domain"
	"github.com/UTSAV1434/AfterHours/moderation"
	"github.com/UTSAV1434/AfterHours/repositories"
	"github.com/UTSAV1434/AfterHours/search"
	"github.com/UTSAV1434/AfterHours/services"
	"github.com/UTSAV1434/AfterHours/storage"
)

const testAdminPassword = "night-admin-secret"

// newTestServer assembles the whole stack on throwaway backends with the
// posting window open around the current hour.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	kv := storage.NewBadgerKV(db, log)

	idx, err := search.OpenInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	mod, err := moderation.NewModerator([]string{"stupid"}, moderation.FailClosed, log)
	require.NoError(t, err)

	postRepo := repositories.NewPostRepository(kv, log)
	reactRepo := repositories.NewReactionRepository(kv, log)
	timingsRepo := repositories.NewTimingsRepository(kv, log)

	hour := time.Now().Hour()
	require.NoError(t, timingsRepo.Set(context.Background(), domain.Timings{
		PostingWindowStart: hour,
		PostingWindowEnd:   (hour + 1) % 24,
		NightModeStart:     hour,
		NightModeEnd:       (hour + 1) % 24,
	}))

	adminHash, err := auth.HashSecret(testAdminPassword)
	require.NoError(t, err)

	srv := New(
		services.NewPostService(postRepo, timingsRepo, mod, idx, log, true),
		services.NewReactionService(postRepo, reactRepo, log),
		services.NewStatsService(postRepo, log),
		timingsRepo,
		auth.NewTokenManager([]byte("test_signing_key_for_afterhours"), time.Hour),
		adminHash,
		kv,
		log,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func Test_EndToEnd_Post_React_Stats(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	// create
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "hello"})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(true, body["success"])
	post := body["post"].(map[string]any)
	req.Equal("hello", post["content"])
	req.Equal("general", post["category"])
	postID := post["id"].(string)

	// list: exactly one entry, reactions all zero at creation
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/posts", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	posts := body["posts"].([]any)
	req.Len(posts, 1)
	listed := posts[0].(map[string]any)
	req.Equal("hello", listed["content"])
	for _, count := range listed["reactions"].(map[string]any) {
		req.EqualValues(0, count)
	}

	// react as user A
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/posts/"+postID+"/react",
		map[string]any{"emoji": "✨", "userId": "userA", "previousEmoji": nil})
	req.Equal(http.StatusOK, resp.StatusCode)
	reacted := body["post"].(map[string]any)
	req.EqualValues(1, reacted["reactions"].(map[string]any)["✨"])

	// stats
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/stats", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.EqualValues(1, body["totalPosts"])
	req.EqualValues(1, body["totalReactions"])
	req.Equal("hello", body["topPost"].(map[string]any)["content"])
}

func Test_CreatePost_Validation(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "   "})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.Contains(body["error"], "content")

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": strings.Repeat("x", 201)})
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"category": "general"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_CreatePost_Moderation(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "This is STUPID"})
	req.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	req.NotEmpty(body["error"])
}

func Test_React_Errors(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/posts/nope/react",
		map[string]any{"emoji": "✨", "userId": "userA"})
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/posts/nope/react",
		map[string]any{"userId": "userA"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Delete_And_Cleanup(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "short lived"})
	postID := body["post"].(map[string]any)["id"].(string)

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/posts/"+postID, nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(postID, body["id"])

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/posts/"+postID, nil)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/cleanup", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.EqualValues(0, body["deletedCount"])
}

func Test_Timings_Config(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	// write without credentials is rejected
	payload := map[string]any{
		"postingWindowStart": 22, "postingWindowEnd": 6,
		"nightModeStart": 21, "nightModeEnd": 7,
	}
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/config/timings", payload)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// shared secret in the body works
	payload["adminPassword"] = testAdminPassword
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/config/timings", payload)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal(true, body["success"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/config/timings", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	timings := body["timings"].(map[string]any)
	req.EqualValues(22, timings["postingWindowStart"])
	req.EqualValues(6, timings["postingWindowEnd"])

	// out-of-range hours are rejected
	payload["postingWindowStart"] = 24
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/config/timings", payload)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Admin_Token_Flow(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/auth/admin",
		map[string]string{"password": "wrong"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/auth/admin",
		map[string]string{"password": testAdminPassword})
	req.Equal(http.StatusOK, resp.StatusCode)
	token := body["token"].(string)
	req.NotEmpty(token)

	// token authorizes a timings write without the body secret
	payload, err := json.Marshal(map[string]any{
		"postingWindowStart": 1, "postingWindowEnd": 4,
		"nightModeStart": 0, "nightModeEnd": 6,
	})
	req.NoError(err)
	httpReq, err := http.NewRequest(http.MethodPost, ts.URL+"/config/timings", bytes.NewReader(payload))
	req.NoError(err)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	tokenResp, err := http.DefaultClient.Do(httpReq)
	req.NoError(err)
	defer tokenResp.Body.Close()
	req.Equal(http.StatusOK, tokenResp.StatusCode)
}

func Test_Search_Endpoint(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	_, _ = doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "the city sleeps tonight"})
	_, _ = doJSON(t, http.MethodPost, ts.URL+"/posts",
		map[string]string{"content": "coffee again"})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/posts/search?q=sleeps", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	posts := body["posts"].([]any)
	req.Len(posts, 1)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/posts/search", nil)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Health(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("ok", body["status"])
	req.Equal("ok", body["store"])
}
