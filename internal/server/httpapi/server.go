// Package httpapi exposes the banking services over HTTP. Handlers stay
// thin: parse, delegate, translate errors. All authorization and money logic
// lives in the services layer.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"corebank/internal/logging"
	"corebank/internal/server/config"
	"corebank/internal/server/models"
	"corebank/internal/server/services"
)

// UserProvider is the slice of the user service the HTTP layer needs.
type UserProvider interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, tokenString string) error
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) (bool, error)
	CurrentIdentity(ctx context.Context, tokenString string) (models.Identity, error)
}

// AccountProvider is the slice of the account service the HTTP layer needs.
type AccountProvider interface {
	Register(ctx context.Context, caller models.Identity, holder, name, accountType, pin string) (*models.Account, error)
	Get(ctx context.Context, caller models.Identity, number int64) (*models.Account, error)
	ListOwned(ctx context.Context, caller models.Identity) ([]*models.Account, error)
	ChangePIN(ctx context.Context, caller models.Identity, number int64, currentPIN, newPIN string) (bool, error)
}

// Ledger is the transaction engine surface used by the handlers.
type Ledger interface {
	Deposit(ctx context.Context, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, caller models.Identity, from, to int64, amount decimal.Decimal, description string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, caller models.Identity, q services.ListQuery) ([]*models.Transaction, error)
}

// Server is the HTTP front of the bank.
type Server struct {
	cfg      *config.Config
	logger   logging.Logger
	users    UserProvider
	accounts AccountProvider
	ledger   Ledger
	router   *gin.Engine
}

// NewServer builds the router with all routes and middleware attached.
func NewServer(cfg *config.Config, logger logging.Logger, users UserProvider, accounts AccountProvider, ledger Ledger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		users:    users,
		accounts: accounts,
		ledger:   ledger,
	}

	gin.SetMode(gin.ReleaseMode)
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	api.Use(Metrics())
	s.registerRoutes(api)

	s.router = r
	return s
}

// registerValidations adds the "money" rule to gin's validator: a decimal
// string with at most two fractional digits.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return d.Exponent() >= -2
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.EndpointAddr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.cfg.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(shutdownCtx, "http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
