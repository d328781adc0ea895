package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger      *slog.Logger
	LogLevel    slog.Level
	CORSOrigins []string
}

type Handlers struct {
	Attendance AttendanceHandler
	Payroll    PayrollHandler
	Policy     PolicyHandler
	Charge     ChargeHandler
	Loan       LoanHandler
	Report     ReportHandler
	Events     EventsHandler
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Authenticated by its own query-string token
		r.Get("/events", h.Events.Stream)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/events/token", h.Events.Token)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/punch", h.Attendance.RecordPunch)
				r.Get("/employees/{employeeID}/days", h.Attendance.ListDays)
				r.Put("/employees/{employeeID}/days/{date}", h.Attendance.RecordManualEntry)
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.Attendance.ListHolidays)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", h.Attendance.CreateHoliday)
					r.Delete("/{id}", h.Attendance.DeleteHoliday)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/", h.Payroll.GetPayroll)
				r.Get("/employees/{employeeID}", h.Payroll.CalculateEmployee)
				r.Route("/months/{monthKey}", func(r chi.Router) {
					r.Get("/", h.Payroll.GetMonth)
					r.Get("/exists", h.Payroll.Exists)
					r.Post("/recalculate", h.Payroll.Recalculate)
					// Operator fields; open to any authenticated role
					r.Patch("/items/{employeeID}", h.Payroll.UpdateItemStatus)
				})
			})

			r.Route("/policies/{subUnitID}", func(r chi.Router) {
				r.Get("/", h.Policy.GetOverride)
				r.Get("/resolved", h.Policy.GetResolved)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/", h.Policy.UpsertOverride)
					r.Delete("/", h.Policy.DeleteOverride)
				})
			})

			r.Route("/charges", func(r chi.Router) {
				r.Get("/", h.Charge.List)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/{code}", h.Charge.Upsert)
					r.Delete("/{code}", h.Charge.Delete)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/attendance/employees/{employeeID}", h.Report.GetAttendanceReport)
				r.Get("/summary/employees/{employeeID}", h.Report.GetMonthlySummary)
			})

			r.Route("/employees/{employeeID}", func(r chi.Router) {
				r.Get("/loans", h.Loan.ListByEmployee)
				r.With(middleware.RequireAdmin).Post("/loans", h.Loan.Create)
			})

			r.With(middleware.RequireAdmin).Delete("/loans/{id}", h.Loan.Deactivate)
		})
	})
	return r
}
