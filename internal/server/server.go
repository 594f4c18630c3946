package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pasarlink/marketplace-backend/internal/cache"
	"github.com/pasarlink/marketplace-backend/internal/config"
	"github.com/pasarlink/marketplace-backend/internal/handler"
	"github.com/pasarlink/marketplace-backend/internal/installment"
	appmw "github.com/pasarlink/marketplace-backend/internal/middleware"
	"github.com/pasarlink/marketplace-backend/internal/orderlock"
	"github.com/pasarlink/marketplace-backend/internal/repository"
	"github.com/pasarlink/marketplace-backend/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	e      *echo.Echo
	engine *service.PenaltyEngine

	itemRepo  repository.ItemRepository
	orderRepo repository.OrderRepository
	notifRepo repository.NotificationRepository
	auditRepo repository.AuditRepository
}

func New(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			return u.Scheme == "http" || u.Scheme == "https", nil
		},
	}))

	locks := orderlock.NewRegistry()
	guard := service.NewCancellationWindowGuard(cfg.CancelWindow)
	orderCache := cache.New(cfg.RedisAddr)

	itemRepo := repository.NewItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notifSvc := service.NewNotificationService(notifRepo)
	auditSvc := service.NewAuditService(auditRepo)
	itemSvc := service.NewItemService(itemRepo)
	orderSvc := service.NewOrderService(orderRepo, itemRepo, locks, guard, installment.HeuristicScorer{}, notifSvc, auditSvc, orderCache, log)
	instSvc := service.NewInstallmentService(orderRepo, locks, notifSvc, auditSvc, orderCache, log)

	engine := service.NewPenaltyEngine(
		orderRepo, locks,
		installment.FixedDailyPercentPolicy{DailyPercent: cfg.PenaltyDailyPercent},
		cfg.PenaltySweepInterval,
		notifSvc, auditSvc, orderCache, log,
	)

	itemHandler := handler.NewItemHandler(itemSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, guard, orderCache)
	sellerHandler := handler.NewSellerOrderHandler(orderSvc, guard, orderHandler)
	instHandler := handler.NewInstallmentHandler(instSvc, guard)
	adminHandler := handler.NewAdminHandler(orderSvc, auditSvc, guard)
	notifHandler := handler.NewNotificationHandler(notifSvc)

	authMw := appmw.NewAuthMiddleware(cfg.JWTSecret)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	api.GET("/items", itemHandler.List)
	api.GET("/items/:id", itemHandler.Get)
	api.POST("/items", itemHandler.Create, authMw.RequireAuth)

	api.POST("/orders", orderHandler.Checkout, authMw.RequireAuth)
	api.GET("/me/orders", orderHandler.ListMine, authMw.RequireAuth)
	api.GET("/orders/detail/:id", orderHandler.GetDetail, authMw.RequireAuth)
	api.PATCH("/orders/:id/status", orderHandler.UpdateStatus, authMw.RequireAuth)
	api.POST("/orders/:id/skip-cancellation-window", orderHandler.SkipCancellationWindow, authMw.RequireAuth)
	api.PATCH("/orders/:id/address", orderHandler.UpdateAddress, authMw.RequireAuth)
	api.POST("/orders/:id/installment/payments/:index/proof", instHandler.SubmitProof, authMw.RequireAuth)

	api.GET("/orders/seller", sellerHandler.ListSales, authMw.RequireAuth)
	api.GET("/orders/seller/detail/:id", sellerHandler.GetDetail, authMw.RequireAuth)
	api.PATCH("/orders/seller/:id/status", sellerHandler.UpdateStatus, authMw.RequireAuth)
	api.POST("/orders/seller/:id/cancel", sellerHandler.Cancel, authMw.RequireAuth)
	api.PATCH("/orders/seller/:id/installment/confirm-sale", instHandler.ConfirmSale, authMw.RequireAuth)
	api.PATCH("/orders/seller/:id/installment/payments/:index/validate", instHandler.ValidateProof, authMw.RequireAuth)

	admin := api.Group("/admin", authMw.RequireAuth, authMw.RequireRole("admin"))
	admin.PATCH("/orders/:id/status", adminHandler.ForceStatus)
	admin.GET("/orders/:id/audit", adminHandler.ListAudit)
	admin.POST("/orders/:id/installment/payments/:index/waive", instHandler.WaiveEntry)

	api.GET("/me/notifications", notifHandler.List, authMw.RequireAuth)
	api.POST("/me/notifications/read", notifHandler.MarkAllRead, authMw.RequireAuth)

	return &Server{
		e:         e,
		engine:    engine,
		itemRepo:  itemRepo,
		orderRepo: orderRepo,
		notifRepo: notifRepo,
		auditRepo: auditRepo,
	}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// PenaltyEngine exposes the sweep engine so main can run it on its own
// goroutine with the process lifetime context.
func (s *Server) PenaltyEngine() *service.PenaltyEngine {
	return s.engine
}

func (s *Server) SetDB(db *gorm.DB) {
	s.itemRepo.SetDB(db)
	s.orderRepo.SetDB(db)
	s.notifRepo.SetDB(db)
	s.auditRepo.SetDB(db)
}
