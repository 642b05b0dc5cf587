// README: Base handler utilities (JSON helpers, error → status mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/payment"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound), errors.Is(err, rider.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, rider.ErrBadRequest),
		errors.Is(err, payment.ErrUnsupportedMethod):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidState), errors.Is(err, order.ErrConflict),
		errors.Is(err, order.ErrNotAssignee), errors.Is(err, payment.ErrAlreadyPaid):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrAmountMismatch), errors.Is(err, payment.ErrPaymentIncomplete),
		errors.Is(err, payment.ErrSignatureMismatch):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrGatewayUnavailable):
		writeError(c, http.StatusBadGateway, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
