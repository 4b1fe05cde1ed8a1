package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/showbase-dev/showbase/backend/internal/config"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/payperiod"
	"github.com/showbase-dev/showbase/backend/internal/repository"
	"github.com/showbase-dev/showbase/backend/internal/upload"
)

const (
	documentsDir = "documents"
	receiptsDir  = "receipts"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client
	documents   *upload.Store
	receipts    *upload.Store
	payPeriods  *payperiod.Calendar

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	maxSize := cfg.Upload.MaxSize << 20
	documents, err := upload.NewStore(cfg.Upload.Dir, documentsDir, cfg.Upload.DocumentExtensions, maxSize)
	if err != nil {
		return nil, err
	}
	receipts, err := upload.NewStore(cfg.Upload.Dir, receiptsDir, cfg.Upload.ReceiptExtensions, maxSize)
	if err != nil {
		return nil, err
	}

	calendar, err := payperiod.Parse(cfg.PayPeriod.Anchor, cfg.PayPeriod.Weeks)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,
		documents:   documents,
		receipts:    receipts,
		payPeriods:  calendar,

		Mux: chi.NewRouter(),
	}, nil
}

var (
	adminOnly    = []domain.Role{domain.RoleAdmin}
	managerRoles = []domain.Role{domain.RoleAdmin, domain.RoleAccountManager}
)

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.With(h.rateLimit("login", h.config.RateLimit.LoginPerMinute)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/register", h.Register)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// everything below needs a logged in, active worker
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)
		r.Use(h.preventInactiveWorker)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/", h.UpdateMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Patch("/theme", h.UpdateMyTheme)
			r.Get("/view-mode", h.GetViewMode)
			r.Post("/view-mode", h.SetViewMode)
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/upcoming-shifts", h.GetUpcomingShifts)
			r.Route("/offers", func(r chi.Router) {
				r.Get("/", h.GetMyOffers)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.assignment)
					r.Use(h.requireOwnAssignment)
					r.Post("/accept", h.AcceptOffer)
					r.Post("/reject", h.RejectOffer)
				})
			})
		})

		r.Route("/workers", func(r chi.Router) {
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateWorker)
			r.With(h.RequiredRole(managerRoles)).Get("/", h.GetAllWorkers)
			r.Get("/account-managers", h.GetAccountManagers)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.workerInfo)
				r.Get("/", h.GetWorker)
				r.With(h.RequiredRole(adminOnly)).With(h.preventOperateInitialAdmin).Patch("/", h.UpdateWorker)
				r.With(h.RequiredRole(adminOnly)).With(h.preventOperateInitialAdmin).Delete("/", h.DeleteWorker)
				r.With(h.RequiredRole(adminOnly)).Patch("/password", h.UpdateWorkerPassword)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.With(h.RequiredRole(managerRoles)).Post("/", h.CreateEvent)
			r.Get("/", h.GetAllEvents)
			r.With(h.RequiredRole(managerRoles)).Get("/report", h.GetEventReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.event)
				r.Get("/", h.GetEvent)
				r.With(h.requireEventManager).Patch("/", h.UpdateEvent)
				r.With(h.requireEventManager).Patch("/status", h.SetEventStatus)
				r.With(h.requireEventManager).Delete("/", h.DeleteEvent)
				r.Get("/crews", h.GetEventCrews)
				r.With(h.requireEventManager).Post("/crews", h.CreateCrew)
				r.Get("/notes", h.GetNotes)
				r.Post("/notes", h.CreateNote)
				r.Get("/documents", h.GetDocuments)
				r.With(h.requireEventManager).Post("/documents", h.UploadDocument)
				r.Route("/documents/{documentID}", func(r chi.Router) {
					r.Use(h.document)
					r.Get("/", h.DownloadDocument)
					r.With(h.requireEventManager).Delete("/", h.DeleteDocument)
				})
			})
		})

		r.Route("/crews", func(r chi.Router) {
			r.With(h.RequiredRole(managerRoles)).Get("/unfulfilled", h.GetUnfulfilledCrews)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.crew)
				r.Get("/", h.GetCrew)
				r.Group(func(r chi.Router) {
					r.Use(h.requireEventManager)
					r.Patch("/", h.UpdateCrew)
					r.Delete("/", h.DeleteCrew)
					r.Get("/suggestions", h.GetCrewSuggestions)
					r.Post("/auto-fill", h.AutoFillCrew)
					r.Post("/assignments", h.AssignWorker)
				})
			})
		})

		r.Route("/assignments/{id}", func(r chi.Router) {
			r.Use(h.assignment)
			r.With(h.RequiredRole(adminOnly)).Patch("/", h.UpdateAssignmentStatus)
			r.With(h.assignmentCrew).With(h.requireEventManager).Delete("/", h.RevokeAssignment)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetShifts)
			r.With(h.RequiredRole(managerRoles)).Post("/", h.CreateShift)
			r.Get("/report", h.GetTimesheetReport)
			r.With(h.shift).With(h.requireEventManager).Delete("/{id}", h.DeleteShift)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.GetExpenses)
			r.With(h.RequiredRole(managerRoles)).Post("/", h.CreateExpense)
			r.Get("/report", h.GetExpenseReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.expense)
				r.Get("/receipt", h.DownloadReceipt)
				r.With(h.requireEventManager).Delete("/", h.DeleteExpense)
			})
		})

		r.Route("/help/posts", func(r chi.Router) {
			r.Get("/", h.GetHelpPosts)
			r.With(h.RequiredRole(adminOnly)).Post("/", h.CreateHelpPost)
		})
	})
}
