// Package server implements the backchaind HTTP service: a small
// multi-tenant front end for internal/logic's backward-chaining resolver.
// A client submits a knowledge-base source text, gets back a session id,
// and can then run queries against that session without re-parsing.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/dekarrin/backchain/server/dao"
	"github.com/dekarrin/backchain/server/middle"
	"github.com/dekarrin/backchain/server/result"
	"github.com/dekarrin/backchain/server/serr"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// API holds the parameters endpoints need to run. Create one and call
// Router to obtain a http.Handler ready to be served.
type API struct {
	// DB is the persistence layer sessions and users are stored in.
	DB dao.Store

	// Secret is used to sign and validate JWT bearer tokens.
	Secret []byte

	// UnauthDelay is how long a request pauses before responding with an
	// HTTP-401, HTTP-403, or HTTP-500, to deprioritize such requests.
	UnauthDelay time.Duration
}

// New connects to the database described by cfg and returns an API ready to
// be routed, following cfg's defaults for the secret and unauth-delay.
func New(cfg Config) (API, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return API{}, err
	}

	store, err := cfg.DB.Connect()
	if err != nil {
		return API{}, err
	}

	return API{
		DB:          store,
		Secret:      cfg.TokenSecret,
		UnauthDelay: cfg.UnauthDelay(),
	}, nil
}

// CreateUser hashes password and creates a new user record with it, the way
// epCreateUser would if it existed as an endpoint. It is used at startup to
// provision the initial admin account.
func (api API) CreateUser(ctx context.Context, username, password, email string, role dao.Role) (dao.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 20)
	if err != nil {
		return dao.User{}, err
	}

	var addr *mail.Address
	if email != "" {
		addr, err = mail.ParseAddress(email)
		if err != nil {
			return dao.User{}, err
		}
	}

	user := dao.User{
		Username: username,
		Password: string(hash),
		Email:    addr,
		Role:     role,
	}

	created, err := api.DB.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.User{}, serr.ErrAlreadyExists
		}
		return dao.User{}, err
	}
	return created, nil
}

// Router builds the full chi.Mux for the service.
func (api API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware(middle.DontPanic()))

	r.Post("/v1/login", api.Endpoint(api.epCreateLogin))

	auth := middle.RequireAuth(api.DB.Users(), api.Secret, api.UnauthDelay)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware(auth))
		r.Post("/v1/sessions", api.Endpoint(api.epCreateSession))
		r.Get("/v1/sessions/{id}", api.Endpoint(api.epGetSession))
		r.Post("/v1/sessions/{id}/queries", api.Endpoint(api.epQuerySession))
		r.Delete("/v1/sessions/{id}", api.Endpoint(api.epDeleteSession))
		r.Post("/v1/sessions/{id}/reset", api.Endpoint(api.epResetSession))
	})

	return r
}

func chiMiddleware(mw middle.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next)
	}
}

// EndpointFunc is the signature handlers in this package implement;
// API.Endpoint adapts one into a http.HandlerFunc.
type EndpointFunc func(req *http.Request) result.Result

// Endpoint wraps an EndpointFunc into a http.HandlerFunc, logging the
// result and delaying 401/403/500 responses by api.UnauthDelay to
// deprioritize failed auth.
func (api API) Endpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r := ep(req)

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
		r.Log(req)
	}
}
