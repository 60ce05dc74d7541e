package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/mgtravels/busbooking/internal/service/booking"
)

// accountHeader carries the optional booking owner; authentication itself
// happens upstream of this service.
const accountHeader = "X-Account-Id"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TripID      int64                 `json:"trip_id" binding:"required"`
	TravelDate  string                `json:"travel_date" binding:"required"`
	FromStopSeq int                   `json:"from_stop_seq"`
	ToStopSeq   int                   `json:"to_stop_seq"`
	Seats       []booking.SeatRequest `json:"seats" binding:"required"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.listForAccount)
	router.GET("/:pnr", h.get)
	router.DELETE("/:pnr", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidRequestError{Msg: err.Error()})
		return
	}
	travelDate, err := time.Parse(dateLayout, req.TravelDate)
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "travel_date must be YYYY-MM-DD"})
		return
	}

	var accountID *string
	if account := c.GetHeader(accountHeader); account != "" {
		accountID = &account
	}

	record, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TripID:      req.TripID,
		TravelDate:  travelDate,
		FromStopSeq: req.FromStopSeq,
		ToStopSeq:   req.ToStopSeq,
		Seats:       req.Seats,
		AccountID:   accountID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *BookingHandler) get(c *gin.Context) {
	record, err := h.service.GetBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	record, err := h.service.CancelBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *BookingHandler) listForAccount(c *gin.Context) {
	account := c.Query("account")
	if account == "" {
		account = c.GetHeader(accountHeader)
	}
	if account == "" {
		respondError(c, domain.InvalidRequestError{Msg: "account is required"})
		return
	}

	records, err := h.service.ListBookingsForAccount(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
