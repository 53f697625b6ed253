package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestlist/internal/attendance"
	"guestlist/internal/auth"
	"guestlist/internal/config"
	"guestlist/internal/metrics"
	"guestlist/internal/queue"
)

// promauto registers on the default registry, so one instance is shared
// across all tests in this package.
var testMetrics = metrics.New()

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	cfg := config.App{
		Env:             "test",
		JWTIssuer:       "guestlist-test",
		JWTSigningKey:   "test-signing-key",
		AccessTTL:       time.Minute,
		RefreshTTL:      time.Hour,
		RateLimitPerMin: 10000,
	}
	svc := attendance.NewService(attendance.NewMemoryRepository(), nil, testMetrics)
	r := newRouter(cfg, svc, testMetrics, queue.NewInMemory(16), func(context.Context) (bool, bool) {
		return true, true
	})
	tokens, err := auth.Issue("test-device", "device", cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	require.NoError(t, err)
	return r, tokens.AccessToken
}

func doJSON(t *testing.T, r *gin.Engine, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createEvent(t *testing.T, r *gin.Engine, token string) string {
	t.Helper()
	w := doJSON(t, r, token, http.MethodPost, "/v1/events", gin.H{"name": "Reception"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var evt struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &evt))
	require.NotEmpty(t, evt.ID)
	return evt.ID
}

func TestAttendanceEndpoint(t *testing.T) {
	r, token := newTestRouter(t)
	eventID := createEvent(t, r, token)

	w := doJSON(t, r, token, http.MethodPost, "/v1/events/"+eventID+"/guests", gin.H{
		"guests": []gin.H{{"name": "Andi"}, {"name": "Budi", "contact": "0812"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, token, http.MethodPost, "/v1/checkins", gin.H{
		"event_id":    eventID,
		"name":        "andi ",
		"party_size":  2,
		"occurred_at": "2026-08-29T19:00:00Z",
		"photo_ref":   "photos/andi.jpg",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = doJSON(t, r, token, http.MethodGet, "/v1/attendance?eventId="+eventID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		EventID string `json:"eventId"`
		Summary struct {
			TotalInvited       int `json:"totalInvited"`
			UniquePresent      int `json:"uniquePresent"`
			TotalPresentPeople int `json:"totalPresentPeople"`
			TotalAbsent        int `json:"totalAbsent"`
		} `json:"summary"`
		Items []struct {
			Name      string  `json:"name"`
			Status    string  `json:"status"`
			PartySize int     `json:"partySize"`
			Timestamp *string `json:"timestamp"`
			PhotoRef  *string `json:"photoRef"`
		} `json:"items"`
		Page struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalItems int `json:"totalItems"`
			TotalPages int `json:"totalPages"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))

	assert.Equal(t, eventID, report.EventID)
	assert.Equal(t, 2, report.Summary.TotalInvited)
	assert.Equal(t, 1, report.Summary.UniquePresent)
	assert.Equal(t, 2, report.Summary.TotalPresentPeople)
	assert.Equal(t, 1, report.Summary.TotalAbsent)

	require.Len(t, report.Items, 2)
	assert.Equal(t, "Andi", report.Items[0].Name)
	assert.Equal(t, "present", report.Items[0].Status)
	require.NotNil(t, report.Items[0].PhotoRef)
	require.NotNil(t, report.Items[0].Timestamp)
	assert.Equal(t, "Budi", report.Items[1].Name)
	assert.Equal(t, "absent", report.Items[1].Status)
	assert.Nil(t, report.Items[1].Timestamp)
	assert.Nil(t, report.Items[1].PhotoRef)

	assert.Equal(t, 1, report.Page.Page)
	assert.Equal(t, 50, report.Page.Limit)
	assert.Equal(t, 2, report.Page.TotalItems)
}

func TestAttendanceFiltersAndPagination(t *testing.T) {
	r, token := newTestRouter(t)
	eventID := createEvent(t, r, token)

	for i, name := range []string{"Andi", "Budi", "Citra"} {
		w := doJSON(t, r, token, http.MethodPost, "/v1/checkins", gin.H{
			"event_id":    eventID,
			"name":        name,
			"occurred_at": fmt.Sprintf("2026-08-29T19:0%d:00Z", i),
		})
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := doJSON(t, r, token, http.MethodGet, "/v1/attendance?eventId="+eventID+"&page=2&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Page struct {
			TotalPages int `json:"totalPages"`
		} `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Items, 1)
	assert.Equal(t, "Budi", report.Items[0].Name)
	assert.Equal(t, 3, report.Page.TotalPages)

	// Garbage filter values fall back to defaults instead of erroring.
	w = doJSON(t, r, token, http.MethodGet, "/v1/attendance?eventId="+eventID+"&status=bogus&sort=sideways&limit=nope", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAttendanceErrors(t *testing.T) {
	r, token := newTestRouter(t)

	w := doJSON(t, r, token, http.MethodGet, "/v1/attendance", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, token, http.MethodGet, "/v1/attendance?eventId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "", http.MethodGet, "/v1/attendance?eventId=ghost", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeviceRegisterIssuesTokens(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "", http.MethodPost, "/v1/devices/register", gin.H{"device_id": "tablet-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	// The issued token must open the /v1 group.
	w = doJSON(t, r, resp.AccessToken, http.MethodGet, "/v1/attendance?eventId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
