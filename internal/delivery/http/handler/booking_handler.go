package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/usecase"
	"healthcare-crm-backend/pkg/response"
	"healthcare-crm-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxDocumentBytes = 20 << 20

type BookingHandler struct {
	bookingUsecase usecase.OpdBookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.OpdBookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.CreateBooking(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create booking")
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookingUsecase.GetBooking(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		response.FromError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

// ListBookings supports agent_id, disposition, from, to (YYYY-MM-DD), page and limit.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.ListBookingsRequest{Disposition: q.Get("disposition")}

	if v := q.Get("agent_id"); v != "" {
		agentID, err := uuid.Parse(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid agent ID", nil)
			return
		}
		req.AgentID = &agentID
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid from date, use YYYY-MM-DD", nil)
			return
		}
		req.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid to date, use YYYY-MM-DD", nil)
			return
		}
		// inclusive of the whole day
		to = to.AddDate(0, 0, 1)
		req.To = &to
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.bookingUsecase.ListBookings(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to get bookings")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Bookings retrieved successfully", result.Bookings,
		response.NewMeta(result.Page, result.Limit, result.Total))
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.UpdateBooking(r.Context(), mux.Vars(r)["reference"], &req)
	if err != nil {
		response.FromError(w, err, "Failed to update booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking updated successfully", booking)
}

func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.bookingUsecase.DeleteBooking(r.Context(), mux.Vars(r)["reference"]); err != nil {
		response.FromError(w, err, "Failed to delete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking deleted successfully", nil)
}

func (h *BookingHandler) AdvanceDisposition(w http.ResponseWriter, r *http.Request) {
	var req dto.AdvanceDispositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.bookingUsecase.AdvanceDisposition(r.Context(), mux.Vars(r)["reference"], &req)
	if err != nil {
		response.FromError(w, err, "Failed to update disposition")
		return
	}

	response.Success(w, http.StatusOK, "Disposition updated successfully", result)
}

func (h *BookingHandler) GetDispositionHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := h.bookingUsecase.GetDispositionHistory(r.Context(), mux.Vars(r)["reference"])
	if err != nil {
		response.FromError(w, err, "Failed to get disposition history")
		return
	}

	response.Success(w, http.StatusOK, "Disposition history retrieved successfully", logs)
}

// AttachDocument spools the multipart field "file" to a temp file; the usecase
// owns the temp file from then on.
func (h *BookingHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	if err := r.ParseMultipartForm(maxDocumentBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart upload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "File field is required", nil)
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "booking-doc-*"+filepath.Ext(header.Filename))
	if err != nil {
		response.InternalServerError(w, "Failed to store upload")
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		response.InternalServerError(w, "Failed to store upload")
		return
	}
	tmp.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	result, err := h.bookingUsecase.AttachDocument(r.Context(), mux.Vars(r)["reference"], dto.DocumentUpload{
		LocalPath: tmp.Name(),
		MimeType:  mimeType,
		FileName:  filepath.Base(header.Filename),
	})
	if err != nil {
		response.FromError(w, err, "Failed to attach document")
		return
	}

	response.Success(w, http.StatusCreated, "Document attached successfully", result)
}
