package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"courtbook/internal/availability"
	"courtbook/internal/booking"
	"courtbook/internal/config"
	"courtbook/internal/funds"
	"courtbook/internal/identity"
	"courtbook/internal/ledger"
	"courtbook/internal/notify"
	"courtbook/internal/projection"
	"courtbook/internal/refund"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
}

// Deps are the already-wired core components; the server only adds the
// HTTP surface on top.
type Deps struct {
	DB       *sqlx.DB
	Index    *projection.Index
	Engine   *availability.Engine
	Backend  ledger.Backend
	Notifier *notify.Service
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	router.Use(RateLimitMiddleware(10, 20))

	pricing := cfg.Pricing()
	validator := booking.NewValidator(deps.Engine, pricing, deps.Backend, cfg.FacilityID)
	view := refund.NewView(deps.Index, deps.Backend)

	identityHandler := identity.NewHandler(deps.DB, cfg.JWTSecret)
	availabilityHandler := availability.NewHandler(deps.Engine)
	bookingHandler := booking.NewHandler(validator, pricing, deps.Notifier)
	refundHandler := refund.NewHandler(view, deps.Notifier)
	fundsHandler := funds.NewHandler(deps.Backend)

	public := router.Group("/auth")
	{
		public.POST("/register", identityHandler.Register)
		public.POST("/login", identityHandler.Login)
	}

	authMiddleware := identity.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", identityHandler.GetMe)
		protected.GET("/availability/free", availabilityHandler.FreeSlots)
		protected.GET("/availability/check", availabilityHandler.Check)
		protected.GET("/bookings/upcoming", availabilityHandler.Upcoming)
		protected.GET("/bookings/quote", bookingHandler.Quote)
		protected.POST("/bookings", bookingHandler.Book)
		protected.POST("/bookings/cancel", bookingHandler.Cancel)
		protected.GET("/refunds/balance", refundHandler.Balance)
		protected.GET("/funds", fundsHandler.Balance)
		protected.POST("/funds/topup", fundsHandler.TopUp)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, identity.RequireRole(identity.RoleAdmin))
	{
		admin.GET("/bookings", availabilityHandler.AdminUpcoming)
		admin.POST("/bookings", bookingHandler.AdminBook)
		admin.POST("/bookings/cancel", bookingHandler.AdminCancel)
		admin.POST("/refunds/:address", refundHandler.AdminIssue)
		admin.GET("/history", History(deps.Index))
		admin.GET("/ledger/balance", PotBalance(deps.Backend, cfg.FacilityID))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{router: router}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router is exposed for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
