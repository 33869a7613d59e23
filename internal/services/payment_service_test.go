package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/KatlegoSeiphemo/careernest/internal/models"
	"github.com/KatlegoSeiphemo/careernest/pkg/momo"
	"github.com/KatlegoSeiphemo/careernest/pkg/smsgateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeSessionRepo struct {
	sessions []*models.MentorshipSession
	findErr  error
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.MentorshipSession) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.MentorshipSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeSessionRepo) FindByMentor(_ context.Context, mentorID primitive.ObjectID) ([]*models.MentorshipSession, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*models.MentorshipSession
	for _, s := range r.sessions {
		if s.MentorID == mentorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) FindEligibleForPayment(_ context.Context, id, mentorID primitive.ObjectID) (*models.MentorshipSession, error) {
	for _, s := range r.sessions {
		if s.ID == id && s.MentorID == mentorID &&
			s.Status == models.SessionStatusCompleted &&
			s.PaymentStatus == models.PaymentStatusPending {
			return s, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeSessionRepo) UpdatePaymentStatus(_ context.Context, id primitive.ObjectID, paymentStatus string) error {
	for _, s := range r.sessions {
		if s.ID == id {
			s.PaymentStatus = paymentStatus
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *fakeSessionRepo) SumRateByPaymentStatus(_ context.Context, mentorID primitive.ObjectID, paymentStatus string) (float64, error) {
	var total float64
	for _, s := range r.sessions {
		if s.MentorID == mentorID && s.PaymentStatus == paymentStatus {
			total += s.Rate
		}
	}
	return total, nil
}

func (r *fakeSessionRepo) SumRatePendingCompleted(_ context.Context, mentorID primitive.ObjectID) (float64, error) {
	var total float64
	for _, s := range r.sessions {
		if s.MentorID == mentorID && s.Status == models.SessionStatusCompleted && s.PaymentStatus == models.PaymentStatusPending {
			total += s.Rate
		}
	}
	return total, nil
}

func (r *fakeSessionRepo) SumRatePaidInRange(_ context.Context, mentorID primitive.ObjectID, start, end time.Time) (float64, error) {
	var total float64
	for _, s := range r.sessions {
		if s.MentorID == mentorID && s.PaymentStatus == models.PaymentStatusPaid &&
			!s.ScheduledAt.Before(start) && s.ScheduledAt.Before(end) {
			total += s.Rate
		}
	}
	return total, nil
}

func (r *fakeSessionRepo) CountCompletedInRange(_ context.Context, mentorID primitive.ObjectID, start, end time.Time) (int64, error) {
	var count int64
	for _, s := range r.sessions {
		if s.MentorID == mentorID && s.Status == models.SessionStatusCompleted &&
			!s.ScheduledAt.Before(start) && s.ScheduledAt.Before(end) {
			count++
		}
	}
	return count, nil
}

type fakeRequestRepo struct {
	requests  []*models.PaymentRequest
	createErr error
}

func (r *fakeRequestRepo) Create(_ context.Context, request *models.PaymentRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	request.ID = primitive.NewObjectID()
	r.requests = append(r.requests, request)
	return nil
}

func (r *fakeRequestRepo) FindByMentor(_ context.Context, mentorID primitive.ObjectID) ([]*models.PaymentRequest, error) {
	var out []*models.PaymentRequest
	for _, req := range r.requests {
		if req.MentorID == mentorID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) UpdateStatusByGatewayRef(_ context.Context, gatewayRef, status string) error {
	for _, req := range r.requests {
		if req.GatewayRef == gatewayRef {
			req.Status = status
			req.UpdatedAt = time.Now()
		}
	}
	return nil
}

type fakeTransactionRepo struct {
	transactions []*models.Transaction
	createErr    error
}

func (r *fakeTransactionRepo) Create(_ context.Context, txn *models.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	txn.ID = primitive.NewObjectID()
	r.transactions = append(r.transactions, txn)
	return nil
}

func (r *fakeTransactionRepo) FindByGatewayRef(_ context.Context, gatewayRef string) (*models.Transaction, error) {
	for _, txn := range r.transactions {
		if txn.GatewayRef == gatewayRef {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeTransactionRepo) UpdateStatusByGatewayRef(_ context.Context, gatewayRef, status string) error {
	for _, txn := range r.transactions {
		if txn.GatewayRef == gatewayRef {
			txn.Status = status
			txn.UpdatedAt = time.Now()
		}
	}
	return nil
}

type fakeRunner struct{}

func (fakeRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeGateway struct {
	requests    []*momo.Transaction
	payErr      error
	status      string
	statusErr   error
	statusCalls int
}

func (g *fakeGateway) CreateTransaction(amount, currency, externalRef, payer, payerType, description string) *momo.Transaction {
	return &momo.Transaction{
		Amount:      amount,
		Currency:    currency,
		ExternalRef: externalRef,
		PayerMSISDN: payer,
		PayerType:   payerType,
		Description: description,
	}
}

func (g *fakeGateway) RequestToPay(_ context.Context, t *momo.Transaction) (string, error) {
	if g.payErr != nil {
		return "", g.payErr
	}
	g.requests = append(g.requests, t)
	return fmt.Sprintf("gw-ref-%d", len(g.requests)), nil
}

func (g *fakeGateway) GetTransactionStatus(_ context.Context, _ string) (string, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.status, nil
}

type paymentFixture struct {
	svc         *MentorPaymentService
	sessions    *fakeSessionRepo
	requests    *fakeRequestRepo
	txns        *fakeTransactionRepo
	gateway     *fakeGateway
	sms         *smsgateway.MockGateway
	mentorID    primitive.ObjectID
	clientPhone string
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		sessions:    &fakeSessionRepo{},
		requests:    &fakeRequestRepo{},
		txns:        &fakeTransactionRepo{},
		gateway:     &fakeGateway{status: momo.StatusPending},
		sms:         smsgateway.NewMockGateway("TEST"),
		mentorID:    primitive.NewObjectID(),
		clientPhone: "27821234567",
	}
	f.svc = NewMentorPaymentService(f.sessions, f.requests, f.txns, f.gateway, fakeRunner{}, f.sms, nil, "ZAR")
	return f
}

func (f *paymentFixture) addSession(status, paymentStatus string, rate float64, scheduledAt time.Time) *models.MentorshipSession {
	session := &models.MentorshipSession{
		ID:            primitive.NewObjectID(),
		MentorID:      f.mentorID,
		ClientID:      primitive.NewObjectID(),
		SessionType:   "cv_review",
		Duration:      60,
		Rate:          rate,
		ScheduledAt:   scheduledAt,
		Status:        status,
		PaymentStatus: paymentStatus,
		ClientPhone:   f.clientPhone,
	}
	f.sessions.sessions = append(f.sessions.sessions, session)
	return session
}

func TestRequestSessionPaymentRejectsIncompleteSessions(t *testing.T) {
	f := newPaymentFixture()

	for _, status := range []string{models.SessionStatusScheduled, models.SessionStatusCancelled} {
		session := f.addSession(status, models.PaymentStatusPending, 500, time.Now())

		result, err := f.svc.RequestSessionPayment(context.Background(), f.mentorID, session.ID)
		require.NoError(t, err)
		assert.False(t, result.Success, "status %s", status)
		assert.Equal(t, ErrSessionNotEligible.Error(), result.Message)
	}
	assert.Empty(t, f.gateway.requests, "gateway must not be called for ineligible sessions")
}

func TestRequestSessionPaymentRejectsAlreadyPaidSessions(t *testing.T) {
	f := newPaymentFixture()
	session := f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 500, time.Now())

	result, err := f.svc.RequestSessionPayment(context.Background(), f.mentorID, session.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, f.gateway.requests)
}

func TestRequestSessionPaymentRejectsOtherMentorsSessions(t *testing.T) {
	f := newPaymentFixture()
	session := f.addSession(models.SessionStatusCompleted, models.PaymentStatusPending, 500, time.Now())

	result, err := f.svc.RequestSessionPayment(context.Background(), primitive.NewObjectID(), session.ID)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestRequestSessionPaymentSuccess(t *testing.T) {
	f := newPaymentFixture()
	session := f.addSession(models.SessionStatusCompleted, models.PaymentStatusPending, 750, time.Now())

	result, err := f.svc.RequestSessionPayment(context.Background(), f.mentorID, session.ID)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.TransactionID)

	require.Len(t, f.requests.requests, 1)
	request := f.requests.requests[0]
	assert.Equal(t, models.RequestStatusSent, request.Status)
	assert.Equal(t, result.TransactionID, request.GatewayRef)
	assert.Equal(t, 750.0, request.Amount)
	assert.Equal(t, "Payment for cv_review session", request.Description)

	require.Len(t, f.txns.transactions, 1)
	txn := f.txns.transactions[0]
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, models.TransactionTypeCollection, txn.Type)
	assert.Equal(t, models.PurposeMentorPayment, txn.Purpose)
	assert.Equal(t, result.TransactionID, txn.GatewayRef)
	assert.Equal(t, session.ID, txn.Link.SessionID)
	assert.Equal(t, request.ID, txn.Link.PaymentRequestID)

	// descriptor sent to the gateway carries a fixed-point amount
	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "750.00", f.gateway.requests[0].Amount)
	assert.Equal(t, "ZAR", f.gateway.requests[0].Currency)

	// client got the notification
	require.Len(t, f.sms.Sent, 1)
	assert.Equal(t, f.clientPhone, f.sms.Sent[0].MSISDN)
}

func TestCreatePaymentRequestGatewayRejected(t *testing.T) {
	f := newPaymentFixture()
	f.gateway.payErr = fmt.Errorf("%w: invalid payer msisdn", momo.ErrRequestRejected)

	result, err := f.svc.CreatePaymentRequest(context.Background(), f.mentorID, "bad", 100, "desc")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "invalid payer msisdn")
	assert.Empty(t, f.requests.requests)
	assert.Empty(t, f.txns.transactions)
	assert.Empty(t, f.sms.Sent)
}

func TestCreatePaymentRequestFailsWhenPersistenceFails(t *testing.T) {
	f := newPaymentFixture()
	f.txns.createErr = errors.New("write failed")

	result, err := f.svc.CreatePaymentRequest(context.Background(), f.mentorID, f.clientPhone, 100, "desc")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.TransactionID)
}

func TestCreatePaymentRequestRoundTrip(t *testing.T) {
	f := newPaymentFixture()

	result, err := f.svc.CreatePaymentRequest(context.Background(), f.mentorID, f.clientPhone, 100, "CV review payment")
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Len(t, f.requests.requests, 1)
	require.Len(t, f.txns.transactions, 1)
	assert.Equal(t, f.requests.requests[0].GatewayRef, f.txns.transactions[0].GatewayRef)

	require.NoError(t, f.svc.UpdatePaymentStatus(context.Background(), result.TransactionID, models.PaymentStatusPaid))
	assert.Equal(t, models.RequestStatusPaid, f.requests.requests[0].Status)
	assert.Equal(t, models.TransactionStatusCompleted, f.txns.transactions[0].Status)
}

func TestUpdatePaymentStatusFlipsLinkedSession(t *testing.T) {
	f := newPaymentFixture()
	session := f.addSession(models.SessionStatusCompleted, models.PaymentStatusPending, 500, time.Now())

	result, err := f.svc.RequestSessionPayment(context.Background(), f.mentorID, session.ID)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NoError(t, f.svc.UpdatePaymentStatus(context.Background(), result.TransactionID, models.PaymentStatusPaid))
	assert.Equal(t, models.PaymentStatusPaid, session.PaymentStatus)
}

func TestUpdatePaymentStatusIsIdempotent(t *testing.T) {
	f := newPaymentFixture()
	session := f.addSession(models.SessionStatusCompleted, models.PaymentStatusPending, 500, time.Now())

	result, err := f.svc.RequestSessionPayment(context.Background(), f.mentorID, session.ID)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NoError(t, f.svc.UpdatePaymentStatus(context.Background(), result.TransactionID, models.PaymentStatusPaid))

	snapshot := func() [3]string {
		return [3]string{
			f.txns.transactions[0].Status,
			f.requests.requests[0].Status,
			session.PaymentStatus,
		}
	}
	first := snapshot()

	// redelivered notification
	require.NoError(t, f.svc.UpdatePaymentStatus(context.Background(), result.TransactionID, models.PaymentStatusPaid))
	assert.Equal(t, first, snapshot())
	assert.Equal(t, [3]string{
		models.TransactionStatusCompleted,
		models.RequestStatusPaid,
		models.PaymentStatusPaid,
	}, first)
}

func TestUpdatePaymentStatusUnknownReference(t *testing.T) {
	f := newPaymentFixture()

	err := f.svc.UpdatePaymentStatus(context.Background(), "no-such-ref", models.PaymentStatusPaid)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestUpdatePaymentStatusRejectsUnknownStatus(t *testing.T) {
	f := newPaymentFixture()

	err := f.svc.UpdatePaymentStatus(context.Background(), "ref", "reversed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCheckPaymentStatusReconcilesTerminalGatewayOutcome(t *testing.T) {
	f := newPaymentFixture()

	result, err := f.svc.CreatePaymentRequest(context.Background(), f.mentorID, f.clientPhone, 100, "desc")
	require.NoError(t, err)
	require.True(t, result.Success)

	f.gateway.status = momo.StatusSuccessful
	status, err := f.svc.CheckPaymentStatus(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, models.TransactionStatusCompleted, f.txns.transactions[0].Status)
	assert.Equal(t, models.RequestStatusPaid, f.requests.requests[0].Status)

	// once terminal the gateway is no longer consulted
	calls := f.gateway.statusCalls
	status, err = f.svc.CheckPaymentStatus(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, calls, f.gateway.statusCalls)
}

func TestCheckPaymentStatusStillPending(t *testing.T) {
	f := newPaymentFixture()

	result, err := f.svc.CreatePaymentRequest(context.Background(), f.mentorID, f.clientPhone, 100, "desc")
	require.NoError(t, err)

	f.gateway.status = momo.StatusPending
	status, err := f.svc.CheckPaymentStatus(context.Background(), result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "pending", status.Status)
	assert.Equal(t, models.TransactionStatusPending, f.txns.transactions[0].Status)
}

func TestCheckPaymentStatusUnknownTransaction(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.CheckPaymentStatus(context.Background(), "no-such-ref")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestEarningsStatsScenario(t *testing.T) {
	f := newPaymentFixture()
	now := time.Date(2025, time.March, 18, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	// this month: completed but unpaid, rate 500
	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPending, 500, time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC))
	// last month: paid, rate 300
	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 300, time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC))

	stats, err := f.svc.GetEarningsStats(context.Background(), f.mentorID)
	require.NoError(t, err)

	assert.Equal(t, 300.0, stats.TotalEarnings)
	assert.Equal(t, 500.0, stats.PendingPayments)
	assert.Equal(t, int64(1), stats.CompletedSessions)
	// previous month paid 300, current month paid 0
	assert.Equal(t, -100.0, stats.MonthlyGrowth)
}

func TestEarningsStatsGrowthZeroWithoutBaseline(t *testing.T) {
	f := newPaymentFixture()
	now := time.Date(2025, time.March, 18, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 900, time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC))

	stats, err := f.svc.GetEarningsStats(context.Background(), f.mentorID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.MonthlyGrowth, "growth must be 0 when the previous month has no paid earnings")
	assert.Equal(t, 900.0, stats.TotalEarnings)
}

func TestEarningsStatsMonthBoundariesAreHalfOpen(t *testing.T) {
	f := newPaymentFixture()
	now := time.Date(2025, time.March, 18, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	marchStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	// first instant of the month belongs to the current month
	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 100, marchStart)
	// last instant of February belongs to the previous month
	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 200, marchStart.Add(-time.Nanosecond))

	stats, err := f.svc.GetEarningsStats(context.Background(), f.mentorID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.CompletedSessions)
	// current 100 vs previous 200 -> -50%
	assert.Equal(t, -50.0, stats.MonthlyGrowth)
}

func TestEarningsStatsGrowthRounding(t *testing.T) {
	f := newPaymentFixture()
	now := time.Date(2025, time.March, 18, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 100, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	f.addSession(models.SessionStatusCompleted, models.PaymentStatusPaid, 300, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC))

	stats, err := f.svc.GetEarningsStats(context.Background(), f.mentorID)
	require.NoError(t, err)
	// (100-300)/300*100 = -66.666... -> -66.67
	assert.Equal(t, -66.67, stats.MonthlyGrowth)
}

func TestGetMentorSessionsSurfacesGenericError(t *testing.T) {
	f := newPaymentFixture()
	f.sessions.findErr = errors.New("connection reset")

	_, err := f.svc.GetMentorSessions(context.Background(), f.mentorID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch mentor sessions")
}
