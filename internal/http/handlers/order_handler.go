// README: Order handlers: checkout, listings, and the admin status PATCH.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type orderItemReq struct {
	FoodID    string          `json:"food_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderReq struct {
	UserID          string          `json:"user_id"`
	RestaurantID    string          `json:"restaurant_id"`
	RestaurantLat   *float64        `json:"restaurant_lat"`
	RestaurantLng   *float64        `json:"restaurant_lng"`
	Items           []orderItemReq  `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method"`
	Instructions    string          `json:"instructions"`
}

// CreateCOD handles POST /order/cod; the method is fixed to cash on delivery.
func (h *OrderHandler) CreateCOD(c *gin.Context) {
	h.create(c, order.MethodCOD)
}

// Create handles POST /order/create with an explicit payment method.
func (h *OrderHandler) Create(c *gin.Context) {
	h.create(c, "")
}

func (h *OrderHandler) create(c *gin.Context, forced order.PaymentMethod) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || len(req.Items) == 0 {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}

	method := forced
	if method == "" {
		m, err := order.ToPaymentMethod(req.PaymentMethod)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid payment method")
			return
		}
		method = m
	}

	cmd := order.CreateCommand{
		CustomerID:   types.ID(req.UserID),
		TotalAmount:  req.TotalAmount,
		Address:      req.DeliveryAddress,
		Method:       method,
		Instructions: req.Instructions,
	}
	if req.RestaurantID != "" {
		id := types.ID(req.RestaurantID)
		cmd.RestaurantID = &id
	}
	if req.RestaurantLat != nil && req.RestaurantLng != nil {
		cmd.RestaurantLocation = &types.Point{Lat: *req.RestaurantLat, Lng: *req.RestaurantLng}
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, order.Item{
			FoodID:    types.ID(item.FoodID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	o, err := h.order.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toOrderResponse(o))
}

// ListUser handles GET /order/user/:userId, newest first.
func (h *OrderHandler) ListUser(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		writeError(c, http.StatusBadRequest, "missing user id")
		return
	}
	orders, err := h.order.ListByCustomer(c.Request.Context(), types.ID(userID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

// ListAll handles GET /order/all (admin listing).
func (h *OrderHandler) ListAll(c *gin.Context) {
	orders, err := h.order.ListAll(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

type updateStatusReq struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"paymentStatus"`
}

// UpdateStatus handles PATCH /order/status/:id; status and paymentStatus are
// independent fields on the same call.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid order id")
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Status == nil && req.PaymentStatus == nil {
		writeError(c, http.StatusBadRequest, "nothing to update")
		return
	}

	cmd := order.UpdateStatusCommand{OrderID: id, ActorType: "admin"}
	if req.Status != nil {
		st, err := order.ToStatus(*req.Status)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid status")
			return
		}
		cmd.Status = &st
	}
	if req.PaymentStatus != nil {
		ps, err := order.ToPaymentStatus(*req.PaymentStatus)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid payment status")
			return
		}
		cmd.PaymentStatus = &ps
	}

	o, err := h.order.UpdateStatus(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderResponse(o))
}

type orderItemResponse struct {
	FoodID    string          `json:"food_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	CustomerID    string              `json:"customer_id"`
	RestaurantID  *string             `json:"restaurant_id,omitempty"`
	RiderID       *string             `json:"rider_id,omitempty"`
	Items         []orderItemResponse `json:"items"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Address       order.Address       `json:"delivery_address"`
	PaymentMethod string              `json:"payment_method"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	TransactionID *string             `json:"transaction_id,omitempty"`
	Instructions  string              `json:"instructions,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID.String(),
		CustomerID:    string(o.CustomerID),
		TotalAmount:   o.TotalAmount,
		Address:       o.Address,
		PaymentMethod: string(o.Method),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TransactionID: o.TransactionID,
		Instructions:  o.Instructions,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.RestaurantID != nil {
		v := string(*o.RestaurantID)
		resp.RestaurantID = &v
	}
	if o.RiderID != nil {
		v := string(*o.RiderID)
		resp.RiderID = &v
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			FoodID:    string(item.FoodID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}

func toOrderResponses(orders []*order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
