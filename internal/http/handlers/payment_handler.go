// README: Payment handlers; initiate returns gateway redirect material, verify
// is the callback landing that settles the payment axis.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/payment"
)

type PaymentHandler struct {
	payment *payment.Service
}

func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{payment: svc}
}

type initiatePaymentReq struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
}

// Initiate handles POST /payment/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req initiatePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	method, err := order.ToPaymentMethod(req.Method)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid payment method")
		return
	}

	res, err := h.payment.Initiate(c.Request.Context(), orderID, method)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

// Verify handles GET /payment/verify. Gateways redirect the customer here;
// query parameters carry either the signed data blob or the lookup key.
func (h *PaymentHandler) Verify(c *gin.Context) {
	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	method, err := order.ToPaymentMethod(c.Query("method"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid payment method")
		return
	}

	o, err := h.payment.Verify(c.Request.Context(), payment.VerifyRequest{
		OrderID: orderID,
		Method:  method,
		Data:    c.Query("data"),
		Pidx:    c.Query("pidx"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderResponse(o))
}
