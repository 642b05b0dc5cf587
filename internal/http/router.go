// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/http/handlers"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/http/middleware"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/payment"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/notify"
)

type RouterDeps struct {
	Order   *order.Service
	Rider   *rider.Service
	Payment *payment.Service
	Hub     *notify.Hub
}

func NewRouter(deps RouterDeps) http.Handler {
	engine := gin.New()
	engine.Use(middleware.Logging(), middleware.Recovery())

	orderHandler := handlers.NewOrderHandler(deps.Order)
	engine.POST("/order/cod", orderHandler.CreateCOD)
	engine.POST("/order/create", orderHandler.Create)
	engine.GET("/order/user/:userId", orderHandler.ListUser)
	engine.GET("/order/all", orderHandler.ListAll)
	engine.PATCH("/order/status/:id", orderHandler.UpdateStatus)

	paymentHandler := handlers.NewPaymentHandler(deps.Payment)
	engine.POST("/payment/initiate", paymentHandler.Initiate)
	engine.GET("/payment/verify", paymentHandler.Verify)

	riderHandler := handlers.NewRiderHandler(deps.Rider, deps.Order)
	engine.POST("/rider/register", riderHandler.Register)
	engine.GET("/rider/orders/:riderId", riderHandler.ActiveOrders)
	engine.PATCH("/rider/orders/accept", riderHandler.Accept)
	engine.PATCH("/rider/orders/status", riderHandler.Progress)
	engine.PATCH("/rider/status", riderHandler.SetStatus)
	engine.PATCH("/rider/location", riderHandler.SetLocation)

	wsHandler := handlers.NewWSHandler(deps.Hub, deps.Rider)
	engine.GET("/ws/rider", wsHandler.Connect)

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return engine
}
