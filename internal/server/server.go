// Package server exposes the application services over HTTP. Routing and
// JSON binding live here; all domain rules stay in the service layer, and
// handlers only translate between wire types and service calls.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/auth"
	"github.com/debtrail/debtrail/internal/middleware"
	"github.com/debtrail/debtrail/internal/service"
)

// Server wires the application services to their HTTP routes.
type Server struct {
	debts         *service.DebtService
	payments      *service.PaymentService
	profiles      *service.ProfileService
	linking       *service.LinkingService
	jwtManager    *auth.JWTManager
	gatewaySecret string
}

// New creates a Server over the given services.
func New(
	debts *service.DebtService,
	payments *service.PaymentService,
	profiles *service.ProfileService,
	linking *service.LinkingService,
	jwtManager *auth.JWTManager,
	gatewaySecret string,
) *Server {
	return &Server{
		debts:         debts,
		payments:      payments,
		profiles:      profiles,
		linking:       linking,
		jwtManager:    jwtManager,
		gatewaySecret: gatewaySecret,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Gateway-Secret"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// Gateway callbacks and maintenance jobs authenticate with a shared
	// secret, not user tokens.
	trusted := v1.Group("", middleware.RequireGatewaySecret(s.gatewaySecret))
	trusted.POST("/gateway/payments", s.handleGatewayPayment)
	trusted.POST("/maintenance/link-sweep", s.handleLinkSweep)

	authed := v1.Group("", middleware.RequireAuth(s.jwtManager))

	authed.POST("/debts", s.handleCreateDebt)
	authed.GET("/debts", s.handleListDebts)
	authed.GET("/debts/:id", s.handleGetDebt)
	authed.PATCH("/debts/:id", s.handleEditDebt)
	authed.DELETE("/debts/:id", s.handleDeleteDebt)
	authed.POST("/debts/:id/default", s.handleMarkDefaulted)
	authed.POST("/debts/:id/payments", s.handleRecordPayment)
	authed.GET("/debts/:id/payments", s.handleListPayments)

	authed.PUT("/profile", s.handlePutProfile)
	authed.GET("/profile", s.handleGetProfile)
	authed.DELETE("/profile", s.handleDeleteProfile)

	return r
}

// respondError maps the service error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var (
		verr *apperrors.ValidationError
		ferr *apperrors.ForbiddenError
		nerr *apperrors.NotFoundError
		cerr *apperrors.ConflictError
		xerr *apperrors.ExternalError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.As(err, &ferr):
		c.JSON(http.StatusForbidden, gin.H{"error": ferr.Msg})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, gin.H{"error": nerr.Msg})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Msg})
	case errors.As(err, &xerr):
		c.JSON(http.StatusBadGateway, gin.H{"error": xerr.Msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) handleLinkSweep(c *gin.Context) {
	linked, err := s.linking.LinkAllUnlinkedDebts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": linked})
}
