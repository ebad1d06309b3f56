package routes

import (
	"time"

	"bodima/handlers"
	"bodima/middleware"
	"bodima/securestore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the booking flow endpoints onto the router.
func RegisterRoutes(r *gin.Engine, flow *handlers.FlowHandler, store *securestore.Store) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Biometric-Assertion"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api/reservations")
	api.Use(middleware.JWTAuthMiddleware(store))
	{
		api.POST("/draft", flow.StartDraft)
		api.GET("/draft", flow.GetDraft)
		api.PUT("/draft/dates", flow.UpdateDates)
		api.PUT("/draft/payment-method", flow.UpdatePaymentMethod)
		api.GET("/draft/validate", flow.ValidateDraft)
		api.POST("/draft/finalize", flow.FinalizeDraft)
		api.DELETE("/draft", flow.CancelDraft)

		api.GET("/incidents", flow.ListIncidents)
	}
}
