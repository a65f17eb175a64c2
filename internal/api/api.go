package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/IlyasAtabaev731/banking-backend/internal/config"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
	"github.com/IlyasAtabaev731/banking-backend/internal/services/auth"
	"github.com/gorilla/mux"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, *models.Token, error)
	Login(ctx context.Context, email, password string, remember bool) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	CheckToken(ctx context.Context, token string) (*models.User, *models.Profile, error)
}

type BankingService interface {
	Profile(ctx context.Context, userID int64) (*models.Profile, error)
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	Execute(ctx context.Context, user *models.User, req models.TransactionRequest) (*models.Transaction, *models.Profile, error)
}

type APIServer struct {
	config  *config.Config
	logger  *slog.Logger
	server  *http.Server
	auth    AuthService
	banking BankingService
}

func New(config *config.Config, logger *slog.Logger, auth AuthService, banking BankingService) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:         config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		auth:    auth,
		banking: banking,
	}

	s.configureRouter()

	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler returns the fully wrapped router.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()
	router.Use(s.logRequests, s.authenticate)

	router.HandleFunc("/", redirectHandler("/api/auth/")).Methods(http.MethodGet)

	api := router.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/register/", s.registerHandler()).Methods(http.MethodPost)
	api.HandleFunc("/login/", s.loginHandler()).Methods(http.MethodPost)
	api.HandleFunc("/logout/", s.logoutHandler()).Methods(http.MethodPost)
	api.HandleFunc("/check-token/", s.checkTokenHandler()).Methods(http.MethodPost)
	api.HandleFunc("/profile/", s.requireIdentity(s.profileHandler())).Methods(http.MethodGet)
	api.HandleFunc("/transactions/", s.requireIdentity(s.listTransactionsHandler())).Methods(http.MethodGet)
	api.HandleFunc("/transactions/", s.requireIdentity(s.createTransactionHandler())).Methods(http.MethodPost)
	api.HandleFunc("/test/", s.testHandler()).Methods(http.MethodGet, http.MethodPost)

	s.server.Handler = cors(router)
}

func redirectHandler(to string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, to, http.StatusFound)
	}
}
