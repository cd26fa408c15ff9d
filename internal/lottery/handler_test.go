package lottery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	gin.SetMode(gin.TestMode)
	m, s := newTestManager(t)
	r := gin.New()
	NewHandler(m).RegisterRoutes(r)
	return r, s
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateLottery(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/lottery", `{"lottery_date":"2024-05-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var l store.Lottery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, "2024-05-01", l.Date)
	assert.False(t, l.Closed)

	w = do(r, http.MethodPost, "/lottery", `{"lottery_date":"2024-05-01"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/lottery", `{"lottery_date":"May 1st"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandlerCloseDefaultsToYesterday(t *testing.T) {
	r, s := newTestRouter(t)

	l := testutil.SeedLottery(t, s, "2024-05-01", false)
	p := testutil.SeedParticipant(t, s, "Alice")
	b := testutil.SeedBallot(t, s, p.ID, l.ID, l.Date)

	w := do(r, http.MethodPost, "/lottery/close", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var winner store.WinningBallot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &winner))
	assert.Equal(t, b.ID, winner.BallotID)

	w = do(r, http.MethodPost, "/lottery/close", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlerCloseErrors(t *testing.T) {
	r, s := newTestRouter(t)
	testutil.SeedLottery(t, s, "2024-04-01", false)

	w := do(r, http.MethodPost, "/lottery/close?date=2024-03-01", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/lottery/close?date=2024-04-01", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no_ballots_found")

	w = do(r, http.MethodPost, "/lottery/close?date=2024-04-01", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlerQueries(t *testing.T) {
	r, s := newTestRouter(t)
	l := testutil.SeedLottery(t, s, "2024-05-02", false)
	testutil.SeedLottery(t, s, "2024-05-01", true)

	w := do(r, http.MethodGet, "/lottery", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []store.Lottery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	w = do(r, http.MethodGet, "/lottery/open", "")
	require.Equal(t, http.StatusOK, w.Code)
	var open []store.Lottery
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &open))
	require.Len(t, open, 1)
	assert.Equal(t, l.ID, open[0].ID)

	w = do(r, http.MethodGet, "/lottery/active-today", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lottery_date":"2024-05-02"`)

	w = do(r, http.MethodGet, "/lottery/by-date/2024-05-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"closed":true`)

	w = do(r, http.MethodGet, "/lottery/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/lottery/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
