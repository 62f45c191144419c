package update_reservation_status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations"
	"github.com/canchapp/PDR-BookingService/internal/service/reservations/models"
)

type fakeService struct {
	err error
}

func (f *fakeService) UpdateStatus(_ context.Context, _ int64, _ *models.UpdateStatusRequest) error {
	return f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newRouter(svc *fakeService) *mux.Router {
	h := NewHandler(svc, nopLogger{})
	r := mux.NewRouter()
	r.Handle("/api/v1/reservations/{reservationId}/status",
		middleware.Auth(http.HandlerFunc(h.Handle))).Methods(http.MethodPatch)
	return r
}

func doRequest(t *testing.T, svc *fakeService, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservations/42/status", strings.NewReader(body))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)
	return rec
}

func TestHandle_Success(t *testing.T) {
	rec := doRequest(t, &fakeService{}, `{"status":"paid"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandle_InvalidTransitionIsBadRequest(t *testing.T) {
	// Недопустимый переход — ошибка запроса, а не конфликт
	rec := doRequest(t, &fakeService{err: reservations.ErrInvalidTransition}, `{"status":"pending"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandle_StatusConflictIsConflict(t *testing.T) {
	rec := doRequest(t, &fakeService{err: reservations.ErrStatusConflict}, `{"status":"paid"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandle_MissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservations/42/status", strings.NewReader(`{"status":"paid"}`))
	rec := httptest.NewRecorder()
	newRouter(&fakeService{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
