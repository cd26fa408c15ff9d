package participant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/SlpAus/daily-lottery-backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(testutil.NewStore(t))

	p, err := r.Register(ctx, "Alice", "Liddell", "1990-04-01")
	require.NoError(t, err)
	assert.NotZero(t, p.ID)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Liddell", got.LastName)

	_, err = r.Register(ctx, "Alice", "Cooper", "1948-02-04")
	assert.True(t, apperr.Is(err, apperr.KindAlreadyExists))

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = r.Get(ctx, p.ID+1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = r.Register(ctx, "Bob", "Builder", "not-a-date")
	assert.True(t, apperr.Is(err, apperr.KindInvalidOperation))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(NewRegistry(testutil.NewStore(t))).RegisterRoutes(router)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/participant", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := post(`{"first_name":"Alice","last_name":"Liddell","birth_date":"1990-04-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p store.Participant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Alice", p.FirstName)
	assert.Contains(t, w.Body.String(), `"user_id"`)

	w = post(`{"first_name":"Alice","last_name":"Cooper","birth_date":"1948-02-04"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(`{"first_name":"Bob","birth_date":"1948-02-04"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = post(`{"first_name":"Bob","last_name":"Builder","birth_date":"04/02/1948"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = get("/participant")
	require.Equal(t, http.StatusOK, w.Code)
	var list []store.Participant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = get("/participant/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"first_name":"Alice"`)

	w = get("/participant/2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}
