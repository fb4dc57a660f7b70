package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/model"
	"placement_test_backend/internal/repository"
	"placement_test_backend/internal/service"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"placement_test_backend/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
}

type memoryStore struct {
	records map[int64]*model.PlacementTestResult
}

func (m *memoryStore) Upsert(derived *model.PlacementTestResult) (*model.PlacementTestResult, error) {
	if existing, ok := m.records[derived.ResultID]; ok {
		repository.MergeNonNull(existing, derived)
		return existing, nil
	}
	rec := *derived
	rec.Docname = fmt.Sprintf("doc-%d", derived.ResultID)
	m.records[derived.ResultID] = &rec
	return &rec, nil
}

func newTestRouter() (*gin.Engine, *memoryStore) {
	store := &memoryStore{records: make(map[int64]*model.PlacementTestResult)}
	cfg := &config.Config{}
	cfg.Webhook.MaxBodyBytes = 1 << 20

	ingest := service.NewIngestService(store, nil, nil, nil, cfg)
	ctrl := NewWebhookController(ingest, cfg)

	router := gin.New()
	router.POST("/api/webhooks/quiz-result", ctrl.SubmitQuizResult)
	return router, store
}

func postBody(router *gin.Engine, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/quiz-result", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitJSONBody(t *testing.T) {
	router, store := newTestRouter()

	w := postBody(router, "application/json",
		`{"result_id": 123, "quiz_title": "Math Quiz", "quiz_id": 9, "score_percentage": 87.5}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "doc-123", resp["docname"])
	assert.Equal(t, float64(123), resp["result_id"])
	_, hasMessage := resp["message"]
	assert.False(t, hasMessage)

	rec := store.records[123]
	require.NotNil(t, rec)
	require.NotNil(t, rec.ScorePercentage)
	assert.Equal(t, 87.5, *rec.ScorePercentage)
}

func TestSubmitFormEncodedBody(t *testing.T) {
	router, store := newTestRouter()

	form := url.Values{}
	form.Set("result_id", "55")
	form.Set("quiz_title", "Form Quiz")

	w := postBody(router, "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.NotNil(t, store.records[55])
}

func TestSubmitJSONStringInSingleFormField(t *testing.T) {
	router, store := newTestRouter()

	form := url.Values{}
	form.Set("payload", `{"result_id": 77, "quiz_title": "Nested Quiz"}`)

	w := postBody(router, "application/x-www-form-urlencoded", form.Encode())

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "Nested Quiz", store.records[77].QuizTitle)
}

func TestSubmitEmptyBody(t *testing.T) {
	router, _ := newTestRouter()

	w := postBody(router, "application/json", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Missing payload.", resp["message"])
}

func TestSubmitMissingRequiredFields(t *testing.T) {
	router, store := newTestRouter()

	w := postBody(router, "application/json", `{"quiz_title": "No ID"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Both result_id and quiz_title are required.", resp["message"])
	assert.Empty(t, store.records)
}

func TestSubmitTwiceIdempotentKey(t *testing.T) {
	router, store := newTestRouter()

	w := postBody(router, "application/json", `{"result_id": 8, "quiz_title": "First", "score_percentage": 40}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postBody(router, "application/json", `{"result_id": 8, "quiz_title": "Second", "final_score": 12}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, store.records, 1)
	rec := store.records[8]
	assert.Equal(t, "Second", rec.QuizTitle)
	require.NotNil(t, rec.ScorePercentage)
	assert.Equal(t, 40.0, *rec.ScorePercentage)
	require.NotNil(t, rec.FinalScore)
	assert.Equal(t, 12.0, *rec.FinalScore)
}
