package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"courtbook/internal/ledger"
	"courtbook/internal/logger"
	"courtbook/internal/notify"
	"courtbook/internal/slot"
)

func TestMain(m *testing.M) {
	logger.InitWithWriters(io.Discard, io.Discard)
	os.Exit(m.Run())
}

// futureSlot returns a bookable interval on the next open weekday, well
// in the future so validation against the real clock passes.
func futureSlot() slot.Interval {
	day := time.Now().AddDate(0, 0, 14)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.Local)
	return slot.Interval{Start: start, End: start.Add(time.Hour)}
}

const residentY = "0xbbb0000000000000000000000000000000000002"

// matchInterval compares by instant: the JSON round trip loses the
// original time.Location, which would fail DeepEqual matching.
func matchInterval(target slot.Interval) interface{} {
	return mock.MatchedBy(func(iv slot.Interval) bool { return iv.Equal(target) })
}

func routerWith(v *Validator, notifier *notify.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(v, slot.Pricing{Granularity: 30 * time.Minute, FeePerSlot: 1000}, notifier)

	router := gin.New()
	asResident := func(c *gin.Context) {
		c.Set("resident_address", residentX)
		c.Set("resident_role", "resident")
	}
	router.POST("/bookings", asResident, h.Book)
	router.POST("/bookings/cancel", asResident, h.Cancel)
	router.POST("/admin/bookings", asResident, h.AdminBook)
	router.POST("/admin/bookings/cancel", h.AdminCancel)
	router.GET("/bookings/quote", h.Quote)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBookEndpoint(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	event := &ledger.Event{Sequence: 1, Kind: ledger.KindBookingCreated, Requester: residentX, Interval: target, FeePaid: 2000}
	backend.On("SubmitBooking", mock.Anything, residentX, matchInterval(target), "tennis", int64(2000), false).
		Return(event, nil)

	client, redisMock := redismock.NewClientMock()
	redisMock.CustomMatch(func(expected, actual []interface{}) error { return nil }).
		ExpectLPush("notices", "any").SetVal(1)
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/bookings", IntervalRequest{Start: target.Start, End: target.End})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2000), resp.Fee)
	assert.Equal(t, StateConfirmed, resp.State)
	backend.AssertExpectations(t)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestBookEndpointSlotConflict(t *testing.T) {
	target := futureSlot()
	taken := ledger.Event{
		Sequence: 1, Kind: ledger.KindBookingCreated,
		Requester: residentY, Facility: "tennis", Interval: target, FeePaid: 2000,
	}

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(new(MockBackend), taken), notify.NewWithClient(client))

	w := postJSON(router, "/bookings", IntervalRequest{Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookEndpointPastInterval(t *testing.T) {
	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(new(MockBackend)), notify.NewWithClient(client))

	past := time.Now().Add(-24 * time.Hour)
	w := postJSON(router, "/bookings", IntervalRequest{Start: past, End: past.Add(time.Hour)})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookEndpointInsufficientFunds(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitBooking", mock.Anything, residentX, matchInterval(target), "tennis", int64(2000), false).
		Return(nil, ledger.NewSubmissionError(ledger.ReasonInsufficientFunds, nil))

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/bookings", IntervalRequest{Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestBookEndpointFeeMismatch(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitBooking", mock.Anything, residentX, matchInterval(target), "tennis", int64(2000), false).
		Return(nil, ledger.ErrFeeMismatch)

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/bookings", IntervalRequest{Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminBookEndpointWaivesFee(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitBooking", mock.Anything, residentX, matchInterval(target), "tennis", int64(0), true).
		Return(&ledger.Event{Sequence: 2, Kind: ledger.KindBookingCreated, Requester: residentX, Interval: target}, nil)

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/admin/bookings", IntervalRequest{Start: target.Start, End: target.End})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(0), resp.Fee)
	backend.AssertExpectations(t)
}

func TestCancelEndpoint(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitCancellation", mock.Anything, residentX, matchInterval(target), "tennis").
		Return(&ledger.Event{Sequence: 3, Kind: ledger.KindBookingCancelled, Requester: residentX, Interval: target}, nil)

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/bookings/cancel", IntervalRequest{Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusOK, w.Code)
	backend.AssertExpectations(t)
}

func TestCancelEndpointNotFound(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitCancellation", mock.Anything, residentX, matchInterval(target), "tennis").
		Return(nil, ledger.NewSubmissionError(ledger.ReasonBookingNotFound, nil))

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/bookings/cancel", IntervalRequest{Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCancelEndpointTargetsAnyResident(t *testing.T) {
	backend := new(MockBackend)
	target := futureSlot()

	backend.On("SubmitCancellation", mock.Anything, residentY, matchInterval(target), "tennis").
		Return(&ledger.Event{Sequence: 4, Kind: ledger.KindBookingCancelled, Requester: residentY, Interval: target}, nil)

	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(backend), notify.NewWithClient(client))

	w := postJSON(router, "/admin/bookings/cancel", AdminCancelRequest{Requester: residentY, Start: target.Start, End: target.End})

	assert.Equal(t, http.StatusOK, w.Code)
	backend.AssertExpectations(t)
}

func TestQuoteEndpoint(t *testing.T) {
	client, _ := redismock.NewClientMock()
	router := routerWith(newValidator(new(MockBackend)), notify.NewWithClient(client))

	target := futureSlot()
	path := fmt.Sprintf("/bookings/quote?start=%s&end=%s",
		target.Start.Format(time.RFC3339), target.End.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"fee_cents":2000`)
	assert.Contains(t, w.Body.String(), `"slots":2`)
}
