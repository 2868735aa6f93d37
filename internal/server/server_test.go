package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingscore/internal/app"
	"bookingscore/internal/config"
	"bookingscore/internal/logger"
)

const header = "booking_id,hotel,lead_time,adults,children,stays_in_weekend_nights," +
	"stays_in_week_nights,previous_cancellations,is_repeated_guest,deposit_type," +
	"required_car_parking_spaces,total_of_special_requests,reservation_status_date\n"

const bookings = header +
	"b-1,City Hotel,45,2,0,0,0,0,0,No Deposit,0,0,2017-01-01\n" +
	"b-2,Resort Hotel,300,2,0,0,0,0,0,Non Refund,0,0,2017-02-01\n"

func setupServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Schema.Path = filepath.Join("..", "..", "configs", "schema.yaml")
	cfg.Model.Path = filepath.Join("..", "..", "configs", "model.yaml")

	if mutate != nil {
		mutate(cfg)
	}

	a, err := app.Load(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	return New(a)
}

func uploadRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "hotel-cancel-rf", body["model"])
	assert.Equal(t, float64(1), body["schema_version"])
}

func TestSchema(t *testing.T) {
	s := setupServer(t, nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/schema", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "hotel-booking-cancellation", body["name"])
	assert.Equal(t, float64(-1), body["sentinel"])
	assert.Len(t, body["features"], 11)
	assert.Equal(t, map[string]any{"0": "Not Canceled", "1": "Canceled"}, body["labels"])
	assert.Len(t, body["fingerprint"], 64)
}

func TestUpload_CSVDownload(t *testing.T) {
	s := setupServer(t, nil)

	w := serve(s, uploadRequest(t, "/v1/predictions/upload", "bookings.csv", []byte(bookings)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, `attachment; filename="bookings_scored.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "0", w.Header().Get("X-Scoring-Warnings"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.TrimSuffix(header, "\n")+",prediction", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "b-1,City Hotel,45,"))
	assert.True(t, strings.HasSuffix(lines[1], ",Not Canceled"))
	assert.True(t, strings.HasSuffix(lines[2], ",Canceled"))
}

func TestUpload_JSONWithWarnings(t *testing.T) {
	s := setupServer(t, nil)
	csv := bookings + "b-3,Airport Hotel,10,1,0,0,1,0,0,No Deposit,0,1,2017-03-01\n"

	w := serve(s, uploadRequest(t, "/v1/predictions/upload?format=json", "in.csv", []byte(csv)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, float64(3), body["count"])

	warnings, ok := body["warnings"].([]any)
	require.True(t, ok)
	require.Len(t, warnings, 1)
	assert.Equal(t, map[string]any{"field": "hotel", "row": float64(2), "value": "Airport Hotel"}, warnings[0])

	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 3)
	assert.Equal(t, "Canceled", rows[1].(map[string]any)["prediction"])
}

func TestUpload_MissingFields(t *testing.T) {
	s := setupServer(t, nil)
	csv := "hotel,lead_time\nCity Hotel,4\n"

	w := serve(s, uploadRequest(t, "/v1/predictions/upload", "in.csv", []byte(csv)))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, "missing_fields", body["error"])

	fields, ok := body["fields"].([]any)
	require.True(t, ok)
	assert.Len(t, fields, 9)
	assert.Equal(t, "adults", fields[0])
}

func TestUpload_ScoredFileAgain(t *testing.T) {
	s := setupServer(t, nil)

	first := serve(s, uploadRequest(t, "/v1/predictions/upload", "bookings.csv", []byte(bookings)))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	w := serve(s, uploadRequest(t, "/v1/predictions/upload", "bookings_scored.csv", first.Body.Bytes()))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "label_column_exists", body["error"])
	assert.Equal(t, "prediction", body["column"])
	assert.Contains(t, body["message"], "prediction")
}

func TestUpload_InvalidCells(t *testing.T) {
	s := setupServer(t, func(c *config.Config) { c.Schema.UnknownCategory = "reject" })
	csv := header +
		"b-1,Airport Hotel,45,2,0,0,0,0,0,No Deposit,0,0,2017-01-01\n" +
		"b-2,City Hotel,soon,2,0,0,0,0,0,No Deposit,0,0,2017-01-01\n"

	w := serve(s, uploadRequest(t, "/v1/predictions/upload", "in.csv", []byte(csv)))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, "invalid_cells", body["error"])
	assert.Equal(t, []any{
		map[string]any{"field": "hotel", "row": float64(0), "value": "Airport Hotel", "reason": "unknown category"},
		map[string]any{"field": "lead_time", "row": float64(1), "value": "soon", "reason": "invalid value"},
	}, body["cells"])
}

func TestUpload_BadRequests(t *testing.T) {
	s := setupServer(t, nil)

	t.Run("missing file field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/predictions/upload", strings.NewReader(""))
		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("binary upload", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		w := serve(s, uploadRequest(t, "/v1/predictions/upload", "photo.csv", png))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("ragged csv", func(t *testing.T) {
		w := serve(s, uploadRequest(t, "/v1/predictions/upload", "in.csv", []byte("hotel,lead_time\nCity Hotel\n")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_upload", decode(t, w)["error"])
	})
}

func TestUpload_TooLarge(t *testing.T) {
	s := setupServer(t, func(c *config.Config) { c.Server.MaxUploadMb = 1 })

	big := bytes.Repeat([]byte(bookings), (1<<20)/len(bookings)+1)

	w := serve(s, uploadRequest(t, "/v1/predictions/upload", "big.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPredictRecords(t *testing.T) {
	s := setupServer(t, func(c *config.Config) { c.Output.Confidence = true })

	record := func(hotel string, lead int, deposit string) map[string]any {
		return map[string]any{
			"hotel": hotel, "lead_time": lead, "adults": 2, "children": 0,
			"stays_in_weekend_nights": 0, "stays_in_week_nights": 0, "previous_cancellations": 0,
			"is_repeated_guest": 0, "deposit_type": deposit, "required_car_parking_spaces": 0,
			"total_of_special_requests": 0,
		}
	}

	payload, err := json.Marshal(map[string]any{"records": []any{
		record("City Hotel", 45, "No Deposit"),
		record("Resort Hotel", 300, "Non Refund"),
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)

	first := rows[0].(map[string]any)
	assert.Equal(t, "Not Canceled", first["prediction"])
	assert.Equal(t, float64(1), first["prediction_confidence"])
	assert.Equal(t, "Canceled", rows[1].(map[string]any)["prediction"])
}

func TestPredictRecords_Invalid(t *testing.T) {
	s := setupServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/predictions", strings.NewReader(`{"records": [`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(s, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/predictions", strings.NewReader(`{"records": [{"hotel": "City Hotel"}]}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(s, req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "missing_fields", decode(t, w)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t, nil)

	serve(s, uploadRequest(t, "/v1/predictions/upload", "bookings.csv", []byte(bookings)))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rows_scored_total")
}

func TestScoredName(t *testing.T) {
	assert.Equal(t, "march_scored.csv", scoredName("march.csv"))
	assert.Equal(t, "march_scored.csv", scoredName("../../march.tsv"))
	assert.Equal(t, "bookings_scored.csv", scoredName(""))
}

func TestHTTPServer_ErrorLogUsesServiceLogger(t *testing.T) {
	var buf bytes.Buffer

	s := setupServer(t, nil)
	s.log = logger.New(&buf, "info", "text")

	srv := s.httpServer()
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)

	srv.ErrorLog.Print("http: TLS handshake error from 10.0.0.1:5000: EOF")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "TLS handshake error")
}
