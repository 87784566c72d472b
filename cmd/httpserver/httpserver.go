// Package httpserver manages server creation and api routing.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/app"
	"github.com/go-petr/pet-ledger/internal/metrics"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/transactiondelivery"
	"github.com/go-petr/pet-ledger/internal/userdelivery"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
)

// Server holds the ledger, handlers router and configuration.
type Server struct {
	App     *app.App
	Engine  *gin.Engine
	Config  configpkg.Config
	Metrics *metrics.Collector
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with an empty ledger and routes.
func New(logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.New()
	}

	a, err := app.New(config, collector)
	if err != nil {
		return nil, fmt.Errorf("cannot build ledger: %w", err)
	}

	if err := moneypkg.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("cannot register decimal validator: %w", err)
	}

	userHandler := userdelivery.NewHandler(a.Users, a.Accounts)
	accountHandler := accountdelivery.NewHandler(a.Accounts, a.Users)
	transactionHandler := transactiondelivery.NewHandler(a.Ledger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.GET("/users", userHandler.List)
	engine.GET("/users/:id", userHandler.Get)
	engine.PUT("/users/:id", userHandler.Update)
	engine.DELETE("/users/:id", userHandler.Delete)
	engine.GET("/users/:id/accounts", userHandler.ListAccounts)

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts", accountHandler.List)
	engine.GET("/accounts/:id", accountHandler.Get)
	engine.DELETE("/accounts/:id", accountHandler.Delete)
	engine.GET("/accounts/:id/transactions", transactionHandler.ListByAccount)

	engine.POST("/transactions/deposit", transactionHandler.Deposit)
	engine.POST("/transactions/withdraw", transactionHandler.Withdraw)
	engine.POST("/transactions/transfer", transactionHandler.Transfer)
	engine.GET("/transactions", transactionHandler.List)
	engine.GET("/transactions/:id", transactionHandler.Get)

	if collector != nil {
		engine.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	server := &Server{
		App:     a,
		Engine:  engine,
		Config:  config,
		Metrics: collector,
	}

	return server, nil
}
