package http

import (
	"net/http"

	"healthcare-crm-backend/internal/delivery/http/handler"
	"healthcare-crm-backend/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router          *mux.Router
	authHandler     *handler.AuthHandler
	meetingHandler  *handler.MeetingHandler
	importHandler   *handler.ImportHandler
	bookingHandler  *handler.BookingHandler
	hospitalHandler *handler.HospitalHandler
	auditLogHandler *handler.AuditLogHandler
	authMiddleware  *middleware.AuthMiddleware
	corsMiddleware  *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	meetingHandler *handler.MeetingHandler,
	importHandler *handler.ImportHandler,
	bookingHandler *handler.BookingHandler,
	hospitalHandler *handler.HospitalHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:          mux.NewRouter(),
		authHandler:     authHandler,
		meetingHandler:  meetingHandler,
		importHandler:   importHandler,
		bookingHandler:  bookingHandler,
		hospitalHandler: hospitalHandler,
		auditLogHandler: auditLogHandler,
		authMiddleware:  authMiddleware,
		corsMiddleware:  corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/otp/request", r.authHandler.RequestOTP).Methods(http.MethodPost)
	auth.HandleFunc("/otp/verify", r.authHandler.VerifyOTP).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentAgent).Methods(http.MethodGet)

	// Agent routes (protected)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/meetings", r.meetingHandler.CreateMeeting).Methods(http.MethodPost)
	protected.HandleFunc("/meetings/{id}", r.meetingHandler.DeleteMeeting).Methods(http.MethodDelete)
	protected.HandleFunc("/doctors/{id}/meetings", r.meetingHandler.ListDoctorMeetings).Methods(http.MethodGet)

	protected.HandleFunc("/imports/meetings", r.importHandler.ImportMeetings).Methods(http.MethodPost)
	protected.HandleFunc("/imports/bookings", r.importHandler.ImportBookings).Methods(http.MethodPost)

	protected.HandleFunc("/bookings", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", r.bookingHandler.ListBookings).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{reference}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{reference}", r.bookingHandler.UpdateBooking).Methods(http.MethodPatch)
	protected.Handle("/bookings/{reference}", middleware.RequireAdmin(http.HandlerFunc(r.bookingHandler.DeleteBooking))).Methods(http.MethodDelete)
	protected.HandleFunc("/bookings/{reference}/disposition", r.bookingHandler.AdvanceDisposition).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{reference}/dispositions", r.bookingHandler.GetDispositionHistory).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{reference}/documents", r.bookingHandler.AttachDocument).Methods(http.MethodPost)

	protected.HandleFunc("/hospitals/cities", r.hospitalHandler.ListCities).Methods(http.MethodGet)
	protected.HandleFunc("/hospitals", r.hospitalHandler.ListHospitals).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
