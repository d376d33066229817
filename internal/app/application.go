package app

import (
	"time"

	"github.com/harborline/fleetd/internal/app/auth"
	"github.com/harborline/fleetd/internal/app/services/access"
	"github.com/harborline/fleetd/internal/app/services/accounts"
	"github.com/harborline/fleetd/internal/app/services/crews"
	"github.com/harborline/fleetd/internal/app/services/dashboard"
	"github.com/harborline/fleetd/internal/app/services/invitations"
	"github.com/harborline/fleetd/internal/app/services/requests"
	"github.com/harborline/fleetd/internal/app/services/waybills"
	"github.com/harborline/fleetd/internal/app/storage"
	"github.com/harborline/fleetd/internal/app/storage/memory"
	"github.com/harborline/fleetd/internal/logging"
	"github.com/harborline/fleetd/internal/logistics"
	"github.com/harborline/fleetd/internal/mailer"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users    storage.UserStore
	Vessels  storage.VesselStore
	Crews    storage.CrewStore
	Requests storage.RequestStore
}

// Config carries the application-level dependencies that are not stores.
type Config struct {
	TokenSecret string
	TokenTTL    time.Duration
	Mailer      mailer.Sender
	Logistics   logistics.Tracker
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Tokens      *auth.Manager
	Accounts    *accounts.Service
	Access      *access.Service
	Crews       *crews.Service
	Invitations *invitations.Service
	Requests    *requests.Service
	Dashboard   *dashboard.Service
	Waybills    *waybills.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, cfg Config, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Vessels == nil {
		stores.Vessels = mem
	}
	if stores.Crews == nil {
		stores.Crews = mem
	}
	if stores.Requests == nil {
		stores.Requests = mem
	}

	if cfg.Mailer == nil {
		cfg.Mailer = mailer.NewNoop(log)
	}

	tokens := auth.NewManager(cfg.TokenSecret, cfg.TokenTTL)
	accessSvc := access.New(stores.Vessels, stores.Crews, log)

	return &Application{
		log:         log,
		Tokens:      tokens,
		Accounts:    accounts.New(stores.Users, tokens, cfg.Mailer, log),
		Access:      accessSvc,
		Crews:       crews.New(stores.Crews, stores.Users, accessSvc, log),
		Invitations: invitations.New(stores.Vessels, stores.Crews, stores.Users, cfg.Mailer, log),
		Requests:    requests.New(stores.Requests, log),
		Dashboard:   dashboard.New(stores.Requests, log),
		Waybills:    waybills.New(cfg.Logistics, log),
	}, nil
}
