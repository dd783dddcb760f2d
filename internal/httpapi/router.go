package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Payments *PaymentHandler
	Carts    *CartHandler
	Catalog  *CatalogHandler
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Checkout.CreateOrder)
			r.Get("/{orderId}", h.Orders.GetOrder)
			r.Patch("/{orderId}/status", h.Orders.UpdateStatus)
		})
		r.Get("/users/{userId}/orders", h.Orders.ListOrdersByUser)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/process", h.Payments.ProcessPayment)
			r.Post("/refund", h.Payments.ProcessRefund)
			r.Get("/verify/{transactionId}", h.Payments.VerifyPayment)
		})

		r.Route("/carts/{userId}", func(r chi.Router) {
			r.Get("/", h.Carts.GetCart)
			r.Delete("/", h.Carts.ClearCart)
			r.Post("/items", h.Carts.AddItem)
			r.Put("/items/{productId}", h.Carts.UpdateItem)
			r.Delete("/items/{productId}", h.Carts.RemoveItem)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{productId}", h.Catalog.GetProduct)
			r.Post("/adjust", h.Catalog.AdjustProduct)
		})
	})

	return r
}
