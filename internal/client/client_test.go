package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingscore/internal/app"
	"bookingscore/internal/config"
	"bookingscore/internal/server"
)

const bookings = "booking_id,hotel,lead_time,adults,children,stays_in_weekend_nights," +
	"stays_in_week_nights,previous_cancellations,is_repeated_guest,deposit_type," +
	"required_car_parking_spaces,total_of_special_requests\n" +
	"b-1,City Hotel,45,2,0,0,0,0,0,No Deposit,0,0\n" +
	"b-2,Motel,300,2,0,0,0,0,0,Non Refund,0,0\n"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Schema.Path = filepath.Join("..", "..", "configs", "schema.yaml")
	cfg.Model.Path = filepath.Join("..", "..", "configs", "model.yaml")

	a, err := app.Load(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(a).Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/", nil)
	require.NoError(t, err)

	return c
}

func TestNew_EmptyEndpoint(t *testing.T) {
	_, err := New("  ", nil)
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestClient_Health(t *testing.T) {
	h, err := newTestClient(t).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "hotel-cancel-rf", h.Model)
	assert.Equal(t, 1, h.SchemaVersion)
}

func TestClient_Upload(t *testing.T) {
	d, err := newTestClient(t).Upload(context.Background(), "march.csv", strings.NewReader(bookings))
	require.NoError(t, err)

	assert.Equal(t, "march_scored.csv", d.Filename)
	assert.Equal(t, 1, d.Warnings)

	lines := strings.Split(strings.TrimSpace(string(d.Body)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[2], ",Canceled"))
}

func TestClient_Predict_APIError(t *testing.T) {
	_, err := newTestClient(t).Predict(context.Background(), []map[string]any{{"hotel": "City Hotel"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatusCode))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "missing_fields", apiErr.Code)
	assert.Contains(t, apiErr.Fields, "lead_time")
}

func TestClient_UploadFiles(t *testing.T) {
	c := newTestClient(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(bookings), 0644))

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("hotel\nCity Hotel\n"), 0644))

	results := c.UploadFiles(context.Background(), []string{good, bad, filepath.Join(dir, "absent.csv")})
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, "good_scored.csv", results[0].Download.Filename)

	var apiErr *APIError
	require.True(t, errors.As(results[1].Err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

	require.Error(t, results[2].Err)
	assert.Nil(t, results[2].Download)
}

func TestClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL, nil)
	require.NoError(t, err)

	_, err = c.Health(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Code)
	assert.Equal(t, "upstream down", apiErr.Message)
}
