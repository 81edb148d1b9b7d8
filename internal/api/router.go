// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"valley-ledger/internal/api/handler"
	"valley-ledger/internal/domain"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Accounts  *handler.AccountHandler
	Ledger    *handler.LedgerHandler
	Cards     *handler.CardHandler
	Lifecycle *handler.LifecycleHandler
	Loans     *handler.LoanHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, authn handler.Authenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Public endpoints
	r.Post("/accounts", h.Accounts.OpenAccount)
	r.Post("/auth/login", h.Auth.UserLogin)
	r.Post("/admin/auth/login", h.Auth.AdminLogin)

	r.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth(authn, logger))

		// Customer endpoints
		r.Get("/me", h.Accounts.Profile)
		r.Get("/me/pin", h.Accounts.PinStatus)
		r.Post("/me/pin", h.Accounts.SetPin)
		r.Post("/transfers", h.Ledger.UserTransfer)
		r.Get("/transactions", h.Ledger.History)

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", h.Cards.Apply)
			r.Get("/me", h.Cards.MyCard)
			r.Post("/{cardID}/fund", h.Cards.Fund)
			r.Post("/{cardID}/purchase", h.Cards.Purchase)
			r.Post("/{cardID}/to-account", h.Cards.ToAccount)
		})

		r.Post("/loans", h.Loans.Apply)
		r.Get("/loans/me", h.Loans.Mine)

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.RequireRole(domain.RoleAdmin, logger))

			r.Get("/wallet", h.Ledger.Wallet)
			r.Post("/transfers", h.Ledger.AdminTransfer)
			r.Get("/users", h.Accounts.ListUsers)
			r.Get("/transactions", h.Ledger.Transactions)
			r.Get("/transactions/stats", h.Ledger.TransactionStats)
			r.Get("/transactions/{txID}", h.Ledger.Transaction)
			r.Patch("/transactions/{txID}/status", h.Ledger.UpdateTransactionStatus)

			r.Route("/loans", func(r chi.Router) {
				r.Get("/", h.Loans.List)
				r.Get("/{loanID}", h.Loans.Get)
				r.Post("/{loanID}/review", h.Loans.Review)
			})

			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/transactions", h.Ledger.UserHistory)
				r.Post("/fund", h.Ledger.FundUser)
				r.Post("/card/fund", h.Cards.AdminFund)
				r.Post("/deactivate", h.Lifecycle.DeactivateUser)
				r.Post("/reactivate", h.Lifecycle.ReactivateUser)
				r.Delete("/", h.Lifecycle.DeleteUser)

				superadmin := r.With(handler.RequireRole(domain.RoleSuperAdmin, logger))
				superadmin.Post("/restore", h.Lifecycle.RestoreUser)
				superadmin.Delete("/purge", h.Lifecycle.PurgeUser)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.Cards.List)
				r.Post("/", h.Cards.AdminCreate)
				r.Get("/pending", h.Cards.Pending)
				r.Post("/{cardID}/approve", h.Cards.Approve)
				r.Post("/{cardID}/reject", h.Cards.Reject)
				r.Post("/{cardID}/deactivate", h.Cards.Deactivate)
				r.Post("/{cardID}/reactivate", h.Cards.Reactivate)
			})

			// Superadmin-only endpoints
			r.Group(func(r chi.Router) {
				r.Use(handler.RequireRole(domain.RoleSuperAdmin, logger))

				r.Get("/recycle-bin", h.Lifecycle.RecycleBin)

				r.Get("/admins", h.Accounts.ListAdmins)
				r.Post("/admins", h.Accounts.CreateAdmin)
				r.Post("/admins/{adminID}/wallet/fund", h.Ledger.FundWallet)
				r.Post("/admins/{adminID}/deactivate", h.Lifecycle.DeactivateAdmin)
				r.Post("/admins/{adminID}/reactivate", h.Lifecycle.ReactivateAdmin)
				r.Delete("/admins/{adminID}", h.Lifecycle.DeleteAdmin)
			})
		})
	})

	return r
}
