package server

import (
	"context"
	"net/http"
	"time"

	"gymhub/internal/attendance"
	"gymhub/internal/auth"
	"gymhub/internal/billing"
	"gymhub/internal/config"
	"gymhub/internal/gym"
	"gymhub/internal/member"
	"gymhub/internal/notification"
	"gymhub/internal/payment"
	"gymhub/internal/platform"
	"gymhub/internal/subscription"
	"gymhub/internal/user"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	config *config.Config
}

func New(cfg *config.Config, svc *Services) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	router.Use(RateLimitMiddleware(20, 40))

	registerRoutes(router, cfg, svc)

	return &Server{
		router: router,
		config: cfg,
	}
}

func registerRoutes(router *gin.Engine, cfg *config.Config, svc *Services) {
	userHandler := user.NewHandler(svc.Users)
	planHandler := subscription.NewHandler(svc.Plans)
	paymentHandler := payment.NewHandler(svc.Payments)
	notificationHandler := notification.NewHandler(svc.Notifications, svc.Hub)
	billingHandler := billing.NewHandler(svc.Billing)
	gymHandler := gym.NewHandler(svc.Gyms)
	memberHandler := member.NewHandler(svc.Members)
	attendanceHandler := attendance.NewHandler(svc.Attendance)
	platformHandler := platform.NewHandler(svc.Platform)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(2, 5))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}
	router.GET("/plans", planHandler.ListPlans)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/payment-methods", paymentHandler.ListMethods)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.GET("/ws/notifications", notificationHandler.Stream)

		protected.POST("/invoices/:invoiceID/pay", billingHandler.PayInvoice)

		protected.POST("/gyms", auth.RequireRole(auth.RoleGymOwner), gymHandler.RegisterGym)
		protected.GET("/gyms", auth.RequireRole(auth.RoleGymOwner, auth.RoleStaff), gymHandler.ListMine)
	}

	tenant := protected.Group("/gyms/:gymID")
	tenant.Use(auth.RequireRole(auth.RoleGymOwner, auth.RoleStaff), gymHandler.RequireAccess())
	{
		owner := gym.RequireOwner()
		registerMembers := gym.RequireCapability(gym.CapRegisterMembers)
		manageAttendance := gym.RequireCapability(gym.CapManageAttendance)
		manageFinances := gym.RequireCapability(gym.CapManageFinances)

		tenant.POST("/payment", owner, gymHandler.PayRegistration)
		tenant.GET("/dashboard", gymHandler.Dashboard)
		tenant.GET("/plans", gymHandler.ListPlans)
		tenant.POST("/plans", owner, gymHandler.CreatePlan)
		tenant.GET("/staff", owner, gymHandler.ListStaff)
		tenant.POST("/staff", owner, gymHandler.CreateStaff)
		tenant.GET("/staff/:staffID", owner, gymHandler.GetStaff)
		tenant.GET("/share-link", gymHandler.ShareLink)

		tenant.GET("/members", memberHandler.List)
		tenant.POST("/members", registerMembers, memberHandler.Create)
		tenant.GET("/members/:memberID", memberHandler.Get)
		tenant.GET("/members/:memberID/qr", memberHandler.QRCode)
		tenant.POST("/members/:memberID/renew", registerMembers, memberHandler.Renew)
		tenant.POST("/members/:memberID/deactivate", registerMembers, memberHandler.Deactivate)
		tenant.POST("/members/:memberID/notify", memberHandler.Notify)

		tenant.POST("/attendance", manageAttendance, attendanceHandler.RecordManual)
		tenant.POST("/attendance/scan", manageAttendance, attendanceHandler.Scan)
		tenant.GET("/attendance/report", attendanceHandler.Report)

		tenant.GET("/invoices", manageFinances, billingHandler.ListInvoices)
		tenant.POST("/invoices", manageFinances, billingHandler.CreateInvoice)
		tenant.GET("/invoices/:invoiceID", manageFinances, billingHandler.GetInvoice)
		tenant.GET("/visitors", manageFinances, billingHandler.ListVisitors)
		tenant.POST("/visitors", manageFinances, billingHandler.AddVisitor)
		tenant.GET("/expenses", manageFinances, billingHandler.ListGymExpenses)
		tenant.POST("/expenses", manageFinances, billingHandler.AddGymExpense)
		tenant.GET("/reports", manageFinances, billingHandler.GymReport)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleSystemAdmin))
	{
		admin.GET("/dashboard", platformHandler.Dashboard)
		admin.GET("/gyms", platformHandler.ListGyms)
		admin.GET("/gyms/:gymID", platformHandler.GymDetail)
		admin.POST("/gyms/:gymID/approve", platformHandler.ApproveGym)
		admin.POST("/gyms/:gymID/renew", platformHandler.RenewSubscription)

		admin.POST("/plans", planHandler.CreatePlan)
		admin.PUT("/plans/:planID", planHandler.UpdatePlan)

		admin.GET("/invoices", billingHandler.ListPaidInvoices)
		admin.GET("/income", billingHandler.IncomeByGym)
		admin.GET("/reports", billingHandler.PlatformReport)
		admin.GET("/expenses", billingHandler.ListPlatformExpenses)
		admin.POST("/expenses", billingHandler.AddPlatformExpense)

		admin.POST("/notifications", platformHandler.Broadcast)
		admin.GET("/settings", platformHandler.GetSettings)
		admin.PUT("/settings", platformHandler.UpdateSettings)
		admin.GET("/share-link", platformHandler.ShareLink)
		admin.POST("/share-link", platformHandler.Invite)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
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
