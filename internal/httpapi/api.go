// Package httpapi is the HTTP surface of SPEC_FULL.md §6: authentication,
// CRUD over the pipeline's configuration entities, signal/execution queries,
// and the WebSocket upgrade endpoint. No internal layer writes an HTTP
// response directly — this package alone translates an apperr.Kind into a
// status code.
package httpapi

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/signalbridge/platform/internal/auth"
	"github.com/signalbridge/platform/internal/broker"
	"github.com/signalbridge/platform/internal/crypto"
	"github.com/signalbridge/platform/internal/execution"
	"github.com/signalbridge/platform/internal/notify"
	"github.com/signalbridge/platform/internal/repository"
)

// SystemController starts and stops the Pipeline Coordinator (§4.8) behind
// the /system/{start,stop,status} endpoints. Modeled as an interface to
// avoid a circular import against internal/coordinator.
type SystemController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() string
}

// API holds every dependency the route handlers need.
type API struct {
	store   *repository.Store
	vault   *crypto.Vault
	tokens  *auth.TokenIssuer
	engine  *execution.Engine
	hub     *notify.Hub
	brokers broker.Registry
	system  SystemController
	log     zerolog.Logger
}

func New(store *repository.Store, vault *crypto.Vault, tokens *auth.TokenIssuer, engine *execution.Engine, hub *notify.Hub, brokers broker.Registry, system SystemController, log zerolog.Logger) *API {
	return &API{
		store:   store,
		vault:   vault,
		tokens:  tokens,
		engine:  engine,
		hub:     hub,
		brokers: brokers,
		system:  system,
		log:     log.With().Str("component", "httpapi").Logger(),
	}
}

// Mount registers every route of §6 onto r.
func (a *API) Mount(r chi.Router) {
	r.Post("/auth/register", a.handleRegister)
	r.Post("/auth/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth)

		r.Route("/broker-configs", func(r chi.Router) {
			r.Get("/", a.handleListBrokerConfigs)
			r.Post("/", a.handleCreateBrokerConfig)
			r.Delete("/{id}", a.handleDeleteBrokerConfig)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Get("/", a.handleListCredentials)
			r.Post("/", a.handleUpsertCredential)
			r.Delete("/{id}", a.handleDeleteCredential)
		})

		r.Route("/telegram-channels", func(r chi.Router) {
			r.Get("/", a.handleListChannels)
			r.Post("/", a.handleCreateChannel)
			r.Delete("/{id}", a.handleDeleteChannel)
		})

		r.Route("/subscribers", func(r chi.Router) {
			r.Get("/", a.handleListSubscribers)
			r.Post("/", a.handleCreateSubscriber)
			r.Delete("/{id}", a.handleDeleteSubscriber)
		})

		r.Route("/signals", func(r chi.Router) {
			r.Get("/", a.handleListSignals)
			r.Get("/{id}", a.handleGetSignal)
		})

		r.Route("/executions", func(r chi.Router) {
			r.Get("/", a.handleListExecutions)
			r.Post("/", a.handleCreateExecution)
			r.Get("/{id}", a.handleGetExecution)
			r.Post("/{id}/confirm", a.handleConfirmExecution)
			r.Post("/{id}/cancel", a.handleCancelExecution)
			r.Post("/{id}/close", a.handleCloseExecution)
			r.Post("/{id}/modify", a.handleModifyExecution)
		})

		r.Get("/settings", a.handleGetSettings)
		r.Put("/settings", a.handlePutSettings)
		r.Get("/account/info", a.handleAccountInfo)

		r.Route("/system", func(r chi.Router) {
			r.Post("/start", a.handleSystemStart)
			r.Post("/stop", a.handleSystemStop)
			r.Get("/status", a.handleSystemStatus)
		})

		r.Get("/ws", a.handleWebSocket)
	})
}
