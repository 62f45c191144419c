package process_payment_notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canchapp/PDR-BookingService/internal/domain"
	reservationRepo "github.com/canchapp/PDR-BookingService/internal/infra/storage/reservation"
	gatewayClient "github.com/canchapp/PDR-BookingService/internal/integrations/paygateway"
)

type fakeReservationRepo struct {
	byID  map[int64]*domain.Reservation
	byRef map[string]int64
	// одноразовая ошибка следующего UpdateStatusFrom
	updateErr error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: map[int64]*domain.Reservation{}, byRef: map[string]int64{}}
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	res, ok := f.byID[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservationRepo) GetByExternalPaymentRef(_ context.Context, ref string) (*domain.Reservation, error) {
	id, ok := f.byRef[ref]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	cp := *f.byID[id]
	return &cp, nil
}

func (f *fakeReservationRepo) SetExternalPaymentRef(_ context.Context, id int64, ref string) error {
	res, ok := f.byID[id]
	if !ok {
		return reservationRepo.ErrReservationNotFound
	}
	if res.ExternalPaymentRef != nil {
		return reservationRepo.ErrStatusConflict
	}
	if _, taken := f.byRef[ref]; taken {
		return reservationRepo.ErrPaymentRefTaken
	}
	r := ref
	res.ExternalPaymentRef = &r
	f.byRef[ref] = id
	return nil
}

func (f *fakeReservationRepo) UpdateStatusFrom(_ context.Context, id int64, from, to domain.PaymentStatus) error {
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return err
	}
	res, ok := f.byID[id]
	if !ok {
		return reservationRepo.ErrReservationNotFound
	}
	if res.Status != from {
		return reservationRepo.ErrStatusConflict
	}
	res.Status = to
	return nil
}

type fakeEventRepo struct {
	seen map[string]bool
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: map[string]bool{}}
}

func (f *fakeEventRepo) Record(_ context.Context, paymentRef, reportedStatus string) (bool, error) {
	key := paymentRef + "/" + reportedStatus
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeGateway struct {
	payments map[string]*gatewayClient.Payment
	fail     error
	calls    int
}

func (f *fakeGateway) GetPayment(_ context.Context, paymentID string) (*gatewayClient.Payment, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, gatewayClient.ErrPaymentNotFound
	}
	return p, nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// rollbackTxManager моделирует откат: при ошибке записи журнала событий исчезают
type rollbackTxManager struct {
	events *fakeEventRepo
}

func (m rollbackTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[string]bool, len(m.events.seen))
	for k, v := range m.events.seen {
		snapshot[k] = v
	}
	if err := fn(ctx); err != nil {
		m.events.seen = snapshot
		return err
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type ucFixture struct {
	uc      *UseCase
	repo    *fakeReservationRepo
	events  *fakeEventRepo
	gateway *fakeGateway
}

func newFixture() *ucFixture {
	repo := newFakeReservationRepo()
	events := newFakeEventRepo()
	gateway := &fakeGateway{payments: map[string]*gatewayClient.Payment{}}
	uc := NewUseCase(repo, events, gateway, passthroughTxManager{}, nopLogger{})
	return &ucFixture{uc: uc, repo: repo, events: events, gateway: gateway}
}

func (f *ucFixture) seedReservation(id int64, status domain.PaymentStatus, ref *string) {
	res := &domain.Reservation{ID: id, UserID: 7, VenueID: 3, CourtID: 5, Status: status}
	if ref != nil {
		res.ExternalPaymentRef = ref
		f.repo.byRef[*ref] = id
	}
	f.repo.byID[id] = res
}

func (f *ucFixture) seedPayment(id, status, externalRef string) {
	f.gateway.payments[id] = &gatewayClient.Payment{
		ID:                id,
		Status:            status,
		ExternalReference: externalRef,
	}
}

func TestExecute_ApprovedPaymentMarksPaid(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	f.seedReservation(1, domain.StatusPending, &ref)
	f.seedPayment("pay-1", "approved", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1", Type: "payment"})
	require.NoError(t, err)

	assert.Equal(t, ResultApplied, resp.Result)
	assert.Equal(t, int64(1), resp.ReservationID)
	assert.Equal(t, string(domain.StatusPaid), resp.Status)
	assert.Equal(t, domain.StatusPaid, f.repo.byID[1].Status)
	// Статус берется из шлюза, а не из тела вебхука
	assert.Equal(t, 1, f.gateway.calls)
}

func TestExecute_DuplicateDeliveryIsNoop(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	f.seedReservation(1, domain.StatusPending, &ref)
	f.seedPayment("pay-1", "approved", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	require.Equal(t, ResultApplied, resp.Result)

	resp, err = f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, resp.Result)
	assert.Equal(t, domain.StatusPaid, f.repo.byID[1].Status)
}

func TestExecute_AdoptsRefFromExternalReference(t *testing.T) {
	f := newFixture()
	f.seedReservation(1, domain.StatusPending, nil)
	f.seedPayment("pay-1", "approved", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)

	assert.Equal(t, ResultApplied, resp.Result)
	require.NotNil(t, f.repo.byID[1].ExternalPaymentRef)
	assert.Equal(t, "pay-1", *f.repo.byID[1].ExternalPaymentRef)
	assert.Equal(t, domain.StatusPaid, f.repo.byID[1].Status)
}

func TestExecute_RejectedPayment(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	f.seedReservation(1, domain.StatusInProcess, &ref)
	f.seedPayment("pay-1", "rejected", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, resp.Result)
	assert.Equal(t, domain.StatusRejected, f.repo.byID[1].Status)
}

func TestExecute_UnknownGatewayStatusTreatedAsInProcess(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	f.seedReservation(1, domain.StatusPending, &ref)
	f.seedPayment("pay-1", "weird_new_status", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, resp.Result)
	assert.Equal(t, domain.StatusInProcess, f.repo.byID[1].Status)
}

func TestExecute_SameStatusIgnored(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	f.seedReservation(1, domain.StatusPaid, &ref)
	f.seedPayment("pay-1", "approved", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
	assert.Equal(t, domain.StatusPaid, f.repo.byID[1].Status)
}

func TestExecute_ForbiddenTransitionIgnored(t *testing.T) {
	f := newFixture()
	ref := "pay-1"
	// Отмененное бронирование не может стать оплаченным
	f.seedReservation(1, domain.StatusCancelled, &ref)
	f.seedPayment("pay-1", "approved", "1")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
	assert.Equal(t, domain.StatusCancelled, f.repo.byID[1].Status)
}

func TestExecute_PaymentUnknownToGatewayIgnored(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "forged-id"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
}

func TestExecute_GatewayDownFailsLoudly(t *testing.T) {
	f := newFixture()
	f.gateway.fail = gatewayClient.ErrInternal

	_, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestExecute_NoReservationForPaymentIgnored(t *testing.T) {
	f := newFixture()
	f.seedPayment("pay-1", "approved", "404")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
}

func TestExecute_MalformedExternalReferenceIgnored(t *testing.T) {
	f := newFixture()
	f.seedPayment("pay-1", "approved", "not-a-number")

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
}

func TestExecute_NonPaymentTypeIgnoredWithoutGatewayCall(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1", Type: "merchant_order"})
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, resp.Result)
	assert.Equal(t, 0, f.gateway.calls)
}

func TestExecute_RepoFailureRollsBackDedupAndAllowsRedelivery(t *testing.T) {
	repo := newFakeReservationRepo()
	events := newFakeEventRepo()
	gateway := &fakeGateway{payments: map[string]*gatewayClient.Payment{}}
	uc := NewUseCase(repo, events, gateway, rollbackTxManager{events: events}, nopLogger{})
	f := &ucFixture{uc: uc, repo: repo, events: events, gateway: gateway}

	ref := "pay-1"
	f.seedReservation(1, domain.StatusPending, &ref)
	f.seedPayment("pay-1", "approved", "1")

	// Первая доставка падает на смене статуса: ошибка уходит наружу (5xx для шлюза),
	// дедупликационная запись откатывается вместе с транзакцией
	repo.updateErr = errors.New("connection reset by peer")
	_, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, domain.StatusPending, repo.byID[1].Status)

	// Повторная доставка не считается дубликатом и применяет статус
	resp, err := f.uc.Execute(context.Background(), &Request{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, ResultApplied, resp.Result)
	assert.Equal(t, domain.StatusPaid, repo.byID[1].Status)
}

func TestExecute_EmptyPaymentID(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{PaymentID: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
