// Package app wires the registries and the ledger into one application context.
package app

import (
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/metrics"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/internal/userservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/keylock"
)

// App holds the services that make up the ledger. It is built once at start and
// shared by every request.
type App struct {
	Users    *userservice.Service
	Accounts *accountservice.Service
	Ledger   *ledgerservice.Service
}

// New builds an empty ledger configured by config. collector may be nil.
func New(config configpkg.Config, collector *metrics.Collector) (*App, error) {
	rate, err := config.CommissionRate()
	if err != nil {
		return nil, err
	}

	limits := accountservice.Limits{
		Regular:   config.RegularAccountLimit,
		Corporate: config.CorporateAccountLimit,
	}

	var (
		accountMetrics accountservice.Metrics
		ledgerMetrics  ledgerservice.Metrics
	)

	if collector != nil {
		accountMetrics = collector
		ledgerMetrics = collector
	}

	locks := keylock.New()

	userService := userservice.New(userrepo.NewRepoMem())
	accountService := accountservice.New(accountrepo.NewRepoMem(), userService, locks, limits, accountMetrics)
	ledger := ledgerservice.New(
		transactionrepo.NewRepoMem(),
		accountService,
		userService,
		locks,
		ledgerservice.Options{CommissionRate: rate},
		ledgerMetrics,
	)

	return &App{
		Users:    userService,
		Accounts: accountService,
		Ledger:   ledger,
	}, nil
}
