package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANPalert-art/Port-rep/internal/pubcache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeReader struct {
	summary *pubcache.CycleSummary
	reports map[string][]byte
	err     error
}

func (f *fakeReader) GetSummary(context.Context) (*pubcache.CycleSummary, error) {
	return f.summary, f.err
}

func (f *fakeReader) GetReportRaw(_ context.Context, portCode string) ([]byte, error) {
	return f.reports[portCode], f.err
}

func TestSummaryHandler(t *testing.T) {
	reader := &fakeReader{summary: &pubcache.CycleSummary{
		Mode:      "monitor",
		At:        time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		BatchSize: 42,
		Active:    7,
	}}

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	rec := httptest.NewRecorder()
	SummaryHandler(reader, discardLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got pubcache.CycleSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 42, got.BatchSize)
	assert.Equal(t, 7, got.Active)
}

func TestSummaryHandlerNotPublished(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	rec := httptest.NewRecorder()
	SummaryHandler(&fakeReader{}, discardLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryHandlerBackendError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	rec := httptest.NewRecorder()
	SummaryHandler(&fakeReader{err: errors.New("redis down")}, discardLogger())(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReportHandler(t *testing.T) {
	reader := &fakeReader{reports: map[string][]byte{
		"07": []byte(`{"overall":{"calls":3}}`),
	}}

	req := httptest.NewRequest(http.MethodGet, "/report?port=07", nil)
	rec := httptest.NewRecorder()
	ReportHandler(reader, discardLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"overall":{"calls":3}}`, rec.Body.String())
}

func TestReportHandlerMissingPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	rec := httptest.NewRecorder()
	ReportHandler(&fakeReader{}, discardLogger())(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandlerUnknownPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/report?port=99", nil)
	rec := httptest.NewRecorder()
	ReportHandler(&fakeReader{reports: map[string][]byte{}}, discardLogger())(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
