// README: Entry point; loads config, wires services, starts HTTP server and the re-match sweep.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/config"
	httptransport "github.com/surajacharya12/Mr.Fodee-sub000/internal/http"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/infra"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/cart"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/matching"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/order"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/payment"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/modules/rider"
	"github.com/surajacharya12/Mr.Fodee-sub000/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)

	matchingStore := matching.NewStore(redisClient)
	riderStore := rider.NewStore(dbPool)
	riderSvc := rider.NewService(riderStore, matchingStore)
	matchingSvc := matching.NewService(matchingStore, riderStore, cfg.Matching)

	hub := notify.NewHub()
	carts := cart.NewStore(redisClient)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, matchingSvc, riderStore, hub, carts, cfg.Matching, cfg.Order)

	paymentSvc := payment.NewService(
		orderStore,
		carts,
		payment.NewSwiftPayClient(cfg.SwiftPay),
		payment.NewPayPulseClient(cfg.PayPulse),
	)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Order:   orderSvc,
		Rider:   riderSvc,
		Payment: paymentSvc,
		Hub:     hub,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go orderSvc.RunRematchSweep(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("fodee-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
