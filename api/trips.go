package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mgtravels/busbooking/internal/domain"
	"github.com/mgtravels/busbooking/internal/service/trips"
)

const dateLayout = "2006-01-02"

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.seatMap)
}

func (h *TripHandler) search(c *gin.Context) {
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "date must be YYYY-MM-DD"})
		return
	}
	seats := 1
	if raw := c.Query("seats"); raw != "" {
		if seats, err = strconv.Atoi(raw); err != nil || seats <= 0 {
			respondError(c, domain.InvalidRequestError{Msg: "seats must be a positive number"})
			return
		}
	}

	result, err := h.service.Search(c.Request.Context(), trips.SearchInput{
		Date:     date,
		From:     c.Query("from"),
		To:       c.Query("to"),
		Category: c.Query("category"),
		Seats:    seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TripHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "invalid trip id"})
		return
	}
	trip, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) seatMap(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "invalid trip id"})
		return
	}
	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "date must be YYYY-MM-DD"})
		return
	}
	fromSeq, err := strconv.Atoi(c.Query("fromSeq"))
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "fromSeq must be a number"})
		return
	}
	toSeq, err := strconv.Atoi(c.Query("toSeq"))
	if err != nil {
		respondError(c, domain.InvalidRequestError{Msg: "toSeq must be a number"})
		return
	}

	seatMap, err := h.service.SeatMap(c.Request.Context(), trips.SeatMapInput{
		TripID:      id,
		Date:        date,
		FromStopSeq: fromSeq,
		ToStopSeq:   toSeq,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatMap)
}
