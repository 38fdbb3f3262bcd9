package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"marketserver/internal/auth"
	"marketserver/internal/domain"
	"marketserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Tokens *auth.TokenIssuer

	UserLogin     *service.LoginService
	CustomerLogin *service.LoginService
	SellerLogin   *service.LoginService

	Users     *service.UsersService
	Customers *service.CustomersService
	Sellers   *service.SellersService
	Products  *service.ProductsService
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:        logger,
		isProd:        opts.IsProd,
		dbPing:        opts.DBPing,
		tokens:        opts.Tokens,
		userLogin:     opts.UserLogin,
		customerLogin: opts.CustomerLogin,
		sellerLogin:   opts.SellerLogin,
		usersSvc:      opts.Users,
		customersSvc:  opts.Customers,
		sellersSvc:    opts.Sellers,
		productsSvc:   opts.Products,
		loginLimiter:  newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	apiMux.HandleFunc("POST /v1/auth/login", api.handleUserLogin)
	apiMux.HandleFunc("POST /v1/auth/customer-login", api.handleCustomerLogin)
	apiMux.HandleFunc("POST /v1/auth/seller-login", api.handleSellerLogin)

	apiMux.HandleFunc("GET /v1/users", api.requireAuth(api.handleUsersList, domain.KindUser))
	apiMux.HandleFunc("POST /v1/users", api.requireAuth(api.handleUsersCreate, domain.KindUser))
	apiMux.HandleFunc("GET /v1/users/{id}", api.requireAuth(api.handleUsersGet, domain.KindUser))
	apiMux.HandleFunc("PUT /v1/users/{id}", api.requireAuth(api.handleUsersUpdate, domain.KindUser))
	apiMux.HandleFunc("DELETE /v1/users/{id}", api.requireAuth(api.handleUsersDelete, domain.KindUser))
	apiMux.HandleFunc("POST /v1/users/{id}/change-password", api.requireAuth(api.handleUsersChangePassword, domain.KindUser))

	apiMux.HandleFunc("POST /v1/customers", api.handleCustomersCreate)
	apiMux.HandleFunc("GET /v1/customers", api.requireAuth(api.handleCustomersList, domain.KindUser))
	apiMux.HandleFunc("GET /v1/customers/{id}", api.requireAuth(api.handleCustomersGet, domain.KindUser, domain.KindCustomer))
	apiMux.HandleFunc("PUT /v1/customers/{id}", api.requireAuth(api.handleCustomersUpdate, domain.KindUser, domain.KindCustomer))
	apiMux.HandleFunc("DELETE /v1/customers/{id}", api.requireAuth(api.handleCustomersDelete, domain.KindUser, domain.KindCustomer))
	apiMux.HandleFunc("POST /v1/customers/{id}/change-password", api.requireAuth(api.handleCustomersChangePassword, domain.KindCustomer))

	apiMux.HandleFunc("GET /v1/customers/{id}/cart", api.requireAuth(api.handleCartGet, domain.KindCustomer))
	apiMux.HandleFunc("PUT /v1/customers/{id}/cart", api.requireAuth(api.handleCartAdd, domain.KindCustomer))
	apiMux.HandleFunc("DELETE /v1/customers/{id}/cart", api.requireAuth(api.handleCartRemove, domain.KindCustomer))
	apiMux.HandleFunc("PUT /v1/customers/{id}/top-up", api.requireAuth(api.handleTopUp, domain.KindCustomer))
	apiMux.HandleFunc("POST /v1/customers/{id}/purchase", api.requireAuth(api.handlePurchase, domain.KindCustomer))

	apiMux.HandleFunc("POST /v1/sellers", api.handleSellersCreate)
	apiMux.HandleFunc("GET /v1/sellers", api.requireAuth(api.handleSellersList, domain.KindUser))
	apiMux.HandleFunc("GET /v1/sellers/{id}", api.requireAuth(api.handleSellersGet, domain.KindUser, domain.KindSeller))
	apiMux.HandleFunc("PUT /v1/sellers/{id}", api.requireAuth(api.handleSellersUpdate, domain.KindUser, domain.KindSeller))
	apiMux.HandleFunc("DELETE /v1/sellers/{id}", api.requireAuth(api.handleSellersDelete, domain.KindUser, domain.KindSeller))
	apiMux.HandleFunc("POST /v1/sellers/{id}/change-password", api.requireAuth(api.handleSellersChangePassword, domain.KindSeller))

	apiMux.HandleFunc("GET /v1/products", api.handleProductsList)
	apiMux.HandleFunc("GET /v1/products/{id}", api.handleProductsGet)
	apiMux.HandleFunc("POST /v1/products", api.requireAuth(api.handleProductsCreate, domain.KindSeller))
	apiMux.HandleFunc("PUT /v1/products/{id}", api.requireAuth(api.handleProductsUpdate, domain.KindSeller))
	apiMux.HandleFunc("DELETE /v1/products/{id}", api.requireAuth(api.handleProductsDelete, domain.KindSeller))

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Probe for a matching pattern so unknown /v1 paths get the JSON
		// 404, but dispatch through the mux itself: only ServeHTTP fills
		// in path wildcards for r.PathValue.
		if _, pattern := apiMux.Handler(r); pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		apiMux.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	tokens *auth.TokenIssuer

	userLogin     *service.LoginService
	customerLogin *service.LoginService
	sellerLogin   *service.LoginService

	usersSvc     *service.UsersService
	customersSvc *service.CustomersService
	sellersSvc   *service.SellersService
	productsSvc  *service.ProductsService

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
