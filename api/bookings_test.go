package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/mgtravels/busbooking/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*booking.BookingRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookingRecord), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, ref string) (*booking.BookingRecord, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookingRecord), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, ref string) (*booking.BookingRecord, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookingRecord), args.Error(1)
}

func (m *MockBookingUseCase) ListBookingsForAccount(ctx context.Context, accountID string) ([]booking.BookingRecord, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingRecord), args.Error(1)
}

func newBookingRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(service).Register(router.Group("/bookings"))
	return router
}

func sampleRecord() *booking.BookingRecord {
	return &booking.BookingRecord{
		PNR:         "MGTREF1",
		Status:      domain.BookingStatusConfirmed,
		TripID:      7,
		TravelDate:  time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		FromStop:    "Chennai",
		ToStop:      "Madurai",
		FromStopSeq: 0,
		ToStopSeq:   2,
		DistanceKm:  460,
		FareAmount:  690,
		Seats: []booking.SeatBooking{
			{SeatNo: "5", PassengerName: "Arun Kumar", PassengerPhone: "9876543210", FareAmount: 690},
		},
	}
}

func TestBookingHandler_Create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	mockService.On("CreateBooking", mock.Anything, mock.MatchedBy(func(input booking.CreateBookingInput) bool {
		return input.TripID == 7 &&
			input.TravelDate.Equal(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)) &&
			input.FromStopSeq == 0 && input.ToStopSeq == 2 &&
			len(input.Seats) == 1 && input.Seats[0].SeatNo == "5" &&
			input.AccountID != nil && *input.AccountID == "acct-1"
	})).Return(sampleRecord(), nil).Once()

	body, _ := json.Marshal(map[string]interface{}{
		"trip_id":       7,
		"travel_date":   "2026-09-10",
		"from_stop_seq": 0,
		"to_stop_seq":   2,
		"seats": []map[string]string{
			{"seat_no": "5", "passenger_name": "Arun Kumar", "passenger_phone": "9876543210"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/bookings/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Account-Id", "acct-1")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	var got booking.BookingRecord
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, "MGTREF1", got.PNR)
	assert.Equal(t, 690, got.FareAmount)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_CreateBadDate(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	body := []byte(`{"trip_id":7,"travel_date":"10-09-2026","seats":[{"seat_no":"5"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/bookings/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	mockService.AssertNotCalled(t, "CreateBooking")
}

func TestBookingHandler_CreateStatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"seat taken", domain.SeatUnavailable("5"), http.StatusConflict},
		{"trip missing", domain.NotFoundError{Resource: "trip"}, http.StatusNotFound},
		{"past date", domain.RejectedError{Reason: "cannot book for past dates"}, http.StatusConflict},
		{"commit race", domain.ConflictError{SeatNo: "5"}, http.StatusConflict},
		{"lock timeout", domain.ErrLockTimeout, http.StatusServiceUnavailable},
		{"storage failure", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			router := newBookingRouter(mockService)
			mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, tc.serviceErr).Once()

			body := []byte(`{"trip_id":7,"travel_date":"2026-09-10","from_stop_seq":0,"to_stop_seq":2,"seats":[{"seat_no":"5","passenger_name":"A","passenger_phone":"1"}]}`)
			req := httptest.NewRequest(http.MethodPost, "/bookings/", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			assert.Equal(t, tc.wantStatus, recorder.Code)
		})
	}
}

func TestBookingHandler_Get(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	mockService.On("GetBooking", mock.Anything, "MGTREF1").Return(sampleRecord(), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/bookings/MGTREF1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_GetNotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	mockService.On("GetBooking", mock.Anything, "MISSING").
		Return(nil, domain.NotFoundError{Resource: "booking"}).Once()

	req := httptest.NewRequest(http.MethodGet, "/bookings/MISSING", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBookingHandler_Cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	cancelled := sampleRecord()
	cancelled.Status = domain.BookingStatusCancelled
	mockService.On("CancelBooking", mock.Anything, "MGTREF1").Return(cancelled, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/bookings/MGTREF1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var got booking.BookingRecord
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
}

func TestBookingHandler_ListForAccount(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	mockService.On("ListBookingsForAccount", mock.Anything, "acct-1").
		Return([]booking.BookingRecord{*sampleRecord()}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/bookings/", nil)
	req.Header.Set("X-Account-Id", "acct-1")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var got []booking.BookingRecord
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestBookingHandler_ListForAccountMissingAccount(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	req := httptest.NewRequest(http.MethodGet, "/bookings/", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	mockService.AssertNotCalled(t, "ListBookingsForAccount")
}
