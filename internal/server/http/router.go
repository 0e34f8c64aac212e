// Package http is the inbound web surface of the wallet. POST handlers answer
// with a flash message and a 303 redirect; GET views return JSON carrying the
// data of the page plus the flashes popped for it.
package http

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/server/metrics"
	"github.com/dmitrijs2005/gopherwallet/internal/server/services"
	"github.com/dmitrijs2005/gopherwallet/internal/server/session"
)

// Handler holds the dependencies of every route.
type Handler struct {
	accounts     *services.AccountService
	funding      *services.FundingService
	purchases    *services.PurchaseService
	plans        *services.PlanCatalog
	sessions     *session.Manager
	metrics      *metrics.Metrics
	validate     *validator.Validate
	log          logging.Logger
	secureCookie bool
}

type Deps struct {
	Accounts      *services.AccountService
	Funding       *services.FundingService
	Purchases     *services.PurchaseService
	Plans         *services.PlanCatalog
	Sessions      *session.Manager
	Metrics       *metrics.Metrics
	Logger        logging.Logger
	PublicBaseURL string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		accounts:     d.Accounts,
		funding:      d.Funding,
		purchases:    d.Purchases,
		plans:        d.Plans,
		sessions:     d.Sessions,
		metrics:      d.Metrics,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		log:          d.Logger.With("module", "http"),
		secureCookie: strings.HasPrefix(d.PublicBaseURL, "https://"),
	}
}

// Router wires every route of the web surface.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.recoverer)
	r.Use(h.metrics.Middleware)

	r.Handle("/", h.withSession(h.index)).Methods(http.MethodGet)

	r.Handle("/register", h.withSession(h.view(nil))).Methods(http.MethodGet)
	r.Handle("/register", h.withSession(h.register)).Methods(http.MethodPost)
	r.Handle("/login", h.withSession(h.view(nil))).Methods(http.MethodGet)
	r.Handle("/login", h.withSession(h.login)).Methods(http.MethodPost)
	r.Handle("/reset", h.withSession(h.view(nil))).Methods(http.MethodGet)
	r.Handle("/reset", h.withSession(h.reset)).Methods(http.MethodPost)
	r.Handle("/logout", h.withSession(h.logout)).Methods(http.MethodGet)

	r.Handle("/dashboard", h.withSession(h.requireLogin(msgLoginForDashboard, h.dashboard))).Methods(http.MethodGet)
	r.Handle("/fund", h.withSession(h.requireLogin(msgLoginFirst, h.fundView))).Methods(http.MethodGet)
	r.Handle("/fund", h.withSession(h.requireLogin(msgLoginFirst, h.fund))).Methods(http.MethodPost)
	r.Handle("/fund/callback", h.withSession(h.fundCallback)).Methods(http.MethodGet)
	r.Handle("/airtime", h.withSession(h.requireLogin(msgLoginFirst, h.view(nil)))).Methods(http.MethodGet)
	r.Handle("/airtime", h.withSession(h.requireLogin(msgLoginFirst, h.airtime))).Methods(http.MethodPost)
	r.Handle("/data", h.withSession(h.requireLogin(msgLoginFirst, h.view(h.planList)))).Methods(http.MethodGet)
	r.Handle("/data", h.withSession(h.requireLogin(msgLoginFirst, h.data))).Methods(http.MethodPost)

	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}
