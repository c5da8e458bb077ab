package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsuzuri-dev/tsuzuri/internal/gateway"
	"github.com/tsuzuri-dev/tsuzuri/internal/journal"
	"github.com/tsuzuri-dev/tsuzuri/internal/llm/provider"
	"github.com/tsuzuri-dev/tsuzuri/internal/speech"
	"github.com/tsuzuri-dev/tsuzuri/pkg/diary"
	"github.com/tsuzuri-dev/tsuzuri/pkg/session"
)

func newTestServer(t *testing.T, replies ...string) *Server {
	t.Helper()

	backend, err := session.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store, err := diary.NewFileStore(t.TempDir())
	require.NoError(t, err)

	responses := make([]*provider.CompletionResponse, 0, len(replies))
	for _, r := range replies {
		responses = append(responses, &provider.CompletionResponse{
			Content:      `{"reply": "` + r + `"}`,
			FinishReason: "stop",
		})
	}
	mock := &provider.MockProvider{Responses: responses}
	synth := &speech.MockSynthesizer{Clip: &speech.Clip{Bytes: []byte("mp3"), MIMEType: "audio/mpeg"}}

	gw := gateway.New(mock, synth, gateway.Options{})
	controller := journal.NewController(session.NewLog(backend), store, gw)
	return NewServer("127.0.0.1:0", controller, store)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t, "よかったです")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var started startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	assert.Equal(t, "active", started.State)
	assert.NotEmpty(t, started.DraftID)

	rec = doJSON(t, h, http.MethodPost, "/api/ask", askRequest{Text: "元気です"})
	require.Equal(t, http.StatusOK, rec.Code)

	var asked askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asked))
	assert.Equal(t, "よかったです", asked.Reply)
	assert.Equal(t, "audio/mpeg", asked.AudioMime)
	assert.NotEmpty(t, asked.Audio)

	rec = doJSON(t, h, http.MethodPost, "/api/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var finished finishResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	assert.Equal(t, "[USER] 元気です\n[ASSISTANT] よかったです", finished.Content)

	rec = doJSON(t, h, http.MethodPost, "/api/diary/save", saveRequest{
		Date:    "2024-05-01",
		Content: finished.Content,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/diary/get?date=2024-05-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got getResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, finished.Content, got.Content)
}

func TestAskWithoutSessionConflicts(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/ask", askRequest{Text: "元気です"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/finish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAskRequiresText(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/ask", askRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiaryValidation(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/diary/save", saveRequest{
		Date:    "2024/05/01",
		Content: "whatever",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/diary/get?date=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/diary/month?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingEntryIsEmpty(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/diary/get?date=2024-05-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got getResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2024-05-03", got.Date)
	assert.Equal(t, "", got.Content)
}

func TestDiscardResetsSession(t *testing.T) {
	srv := newTestServer(t, "よかったです")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/ask", askRequest{Text: "内緒の話"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/discard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/finish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMonthProjection(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/diary/save", saveRequest{
		Date:    "2024-04-10",
		Content: "今日はとても良い一日でした",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/diary/month?year=2024&month=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var proj diary.MonthProjection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proj))
	assert.Equal(t, 2024, proj.Year)
	assert.Equal(t, 4, proj.Month)
	require.Len(t, proj.Days, 30)

	assert.True(t, proj.Days[9].HasEntry)
	assert.NotEmpty(t, proj.Days[9].Preview)
	assert.False(t, proj.Days[0].HasEntry)
}

func TestDeleteIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/diary/delete", map[string]string{"date": "2024-05-01"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
