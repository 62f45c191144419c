package cancel_reservation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/canchapp/PDR-BookingService/internal/api/middleware"
	"github.com/canchapp/PDR-BookingService/internal/domain"
	depositModels "github.com/canchapp/PDR-BookingService/internal/service/deposits/models"
	cancelReservation "github.com/canchapp/PDR-BookingService/internal/usecase/cancel_reservation"
)

type fakeUseCase struct {
	resp *cancelReservation.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, _ *cancelReservation.Request) (*cancelReservation.Response, error) {
	return f.resp, f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func doRequest(t *testing.T, uc *fakeUseCase) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(uc, nopLogger{})
	r := mux.NewRouter()
	r.Handle("/api/v1/reservations/{reservationId}/cancel",
		middleware.Auth(http.HandlerFunc(h.Handle))).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reservations/42/cancel", nil)
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_Success(t *testing.T) {
	uc := &fakeUseCase{resp: &cancelReservation.Response{
		ReservationID:  42,
		Status:         string(domain.StatusCancelled),
		DepositOutcome: string(depositModels.OutcomeNoDeposit),
	}}
	rec := doRequest(t, uc)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_CannotCancelIsBadRequest(t *testing.T) {
	// Неотменяемый статус — ошибка запроса, а не конфликт
	rec := doRequest(t, &fakeUseCase{err: cancelReservation.ErrCannotCancel})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandle_StatusConflictIsConflict(t *testing.T) {
	rec := doRequest(t, &fakeUseCase{err: cancelReservation.ErrStatusConflict})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandle_NotFound(t *testing.T) {
	rec := doRequest(t, &fakeUseCase{err: cancelReservation.ErrReservationNotFound})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
