// README: Rider-facing handlers: active orders, accept, delivery progression,
// presence and location updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type RiderHandler struct {
	rider *rider.Service
	order *order.Service
}

func NewRiderHandler(riderSvc *rider.Service, orderSvc *order.Service) *RiderHandler {
	return &RiderHandler{rider: riderSvc, order: orderSvc}
}

type registerRiderReq struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	VehicleType   string `json:"vehicle_type"`
	LicenseNumber string `json:"license_number"`
}

// Register handles POST /rider/register. New riders start offline.
func (h *RiderHandler) Register(c *gin.Context) {
	var req registerRiderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ctx := c.Request.Context()
	err := h.rider.Register(ctx, rider.RegisterCommand{
		ID:            types.ID(req.ID),
		UserID:        types.ID(req.UserID),
		VehicleType:   req.VehicleType,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	r, err := h.rider.Get(ctx, types.ID(req.ID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRiderResponse(r))
}

// ActiveOrders handles GET /rider/orders/:riderId; everything between
// assignment and handoff.
func (h *RiderHandler) ActiveOrders(c *gin.Context) {
	riderID := c.Param("riderId")
	if riderID == "" {
		writeError(c, http.StatusBadRequest, "missing rider id")
		return
	}
	orders, err := h.order.ActiveForRider(c.Request.Context(), types.ID(riderID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

type acceptReq struct {
	OrderID string `json:"order_id"`
	RiderID string `json:"rider_id"`
}

// Accept handles PATCH /rider/orders/accept. Only the assigned rider may
// accept; a raced second accept gets a conflict.
func (h *RiderHandler) Accept(c *gin.Context) {
	var req acceptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil || req.RiderID == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	o, err := h.order.Accept(c.Request.Context(), order.AcceptCommand{OrderID: orderID, RiderID: types.ID(req.RiderID)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderResponse(o))
}

type progressReq struct {
	OrderID string `json:"order_id"`
	RiderID string `json:"rider_id"`
	Status  string `json:"status"`
}

// Progress handles PATCH /rider/orders/status; picked_up, out_for_delivery
// and delivered only.
func (h *RiderHandler) Progress(c *gin.Context) {
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil || req.RiderID == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	st, err := order.ToStatus(req.Status)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid status")
		return
	}
	o, err := h.order.Progress(c.Request.Context(), order.ProgressCommand{OrderID: orderID, RiderID: types.ID(req.RiderID), To: st})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toOrderResponse(o))
}

type riderStatusReq struct {
	RiderID     string `json:"rider_id"`
	IsOnline    *bool  `json:"is_online"`
	IsAvailable *bool  `json:"is_available"`
}

// SetStatus handles PATCH /rider/status; online and available are separate
// flags and either may be patched alone.
func (h *RiderHandler) SetStatus(c *gin.Context) {
	var req riderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RiderID == "" || (req.IsOnline == nil && req.IsAvailable == nil) {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}

	ctx := c.Request.Context()
	riderID := types.ID(req.RiderID)
	if req.IsOnline != nil {
		if err := h.rider.SetOnline(ctx, riderID, *req.IsOnline); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	if req.IsAvailable != nil {
		if err := h.rider.SetAvailable(ctx, riderID, *req.IsAvailable); err != nil {
			writeServiceError(c, err)
			return
		}
	}

	r, err := h.rider.Get(ctx, riderID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRiderResponse(r))
}

type riderLocationReq struct {
	RiderID string  `json:"rider_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// SetLocation handles PATCH /rider/location. Last write wins.
func (h *RiderHandler) SetLocation(c *gin.Context) {
	var req riderLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RiderID == "" {
		writeError(c, http.StatusBadRequest, "missing rider id")
		return
	}
	if err := h.rider.UpdateLocation(c.Request.Context(), types.ID(req.RiderID), types.Point{Lat: req.Lat, Lng: req.Lng}); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"ok": true})
}

type riderResponse struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	VehicleType     string          `json:"vehicle_type"`
	LicenseNumber   string          `json:"license_number"`
	IsOnline        bool            `json:"is_online"`
	IsAvailable     bool            `json:"is_available"`
	Location        types.Point     `json:"location"`
	WalletBalance   decimal.Decimal `json:"wallet_balance"`
	TotalDeliveries int             `json:"total_deliveries"`
	Rating          float64         `json:"rating"`
}

func toRiderResponse(r *rider.Rider) riderResponse {
	return riderResponse{
		ID:              string(r.ID),
		UserID:          string(r.UserID),
		VehicleType:     r.VehicleType,
		LicenseNumber:   r.LicenseNumber,
		IsOnline:        r.IsOnline,
		IsAvailable:     r.IsAvailable,
		Location:        r.Location,
		WalletBalance:   r.WalletBalance,
		TotalDeliveries: r.TotalDeliveries,
		Rating:          r.Rating,
	}
}
