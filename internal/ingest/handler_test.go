package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novamart/demand-planner/internal/domain"
)

type captureSink struct {
	records []domain.SalesRecord
	err     error
}

func (s *captureSink) IngestRecords(_ context.Context, records []domain.SalesRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, records...)
	return nil
}

const uploadCSV = `date,product,quantity,unit_price
2025-01-02,SKU-1,5,2.50
2025-01-03,SKU-2,3,1.00`

func newUploadRouter(sink *captureSink) *mux.Router {
	r := mux.NewRouter()
	NewHandler(sink).RegisterRoutes(r)
	return r
}

func TestUploadCSVRawBody(t *testing.T) {
	sink := &captureSink{}
	router := newUploadRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/upload", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sink.records, 2)

	var body struct {
		Records  int      `json:"records"`
		Products []string `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Records)
	assert.Equal(t, []string{"SKU-1", "SKU-2"}, body.Products)
}

func TestUploadCSVMultipart(t *testing.T) {
	sink := &captureSink{}
	router := newUploadRouter(sink)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "sales.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(uploadCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sink.records, 2)
}

func TestUploadCSVRejectsMalformed(t *testing.T) {
	sink := &captureSink{}
	router := newUploadRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/upload", strings.NewReader("date,quantity\n2025-01-02,5"))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, sink.records)
}

func TestUploadCSVSinkFailure(t *testing.T) {
	sink := &captureSink{err: errors.New("db down")}
	router := newUploadRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/upload", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPreviewCSVDoesNotStore(t *testing.T) {
	sink := &captureSink{}
	router := newUploadRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest/preview", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sink.records)
}
