package handler

import (
	"io"
	"mime"
	"net/http"

	"healthcare-crm-backend/internal/usecase"
	"healthcare-crm-backend/pkg/response"
)

type ImportHandler struct {
	meetingUsecase usecase.DoctorMeetingUsecase
	bookingImport  usecase.OpdBookingImportUsecase
	maxUploadBytes int64
}

func NewImportHandler(
	meetingUsecase usecase.DoctorMeetingUsecase,
	bookingImport usecase.OpdBookingImportUsecase,
	maxUploadMB int64,
) *ImportHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &ImportHandler{
		meetingUsecase: meetingUsecase,
		bookingImport:  bookingImport,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// ImportMeetings accepts a meeting CSV as multipart field "file" or as the raw body.
// Row failures are reported in the result; only unusable input is a 400.
func (h *ImportHandler) ImportMeetings(w http.ResponseWriter, r *http.Request) {
	body, closeFn, msg := h.csvBody(w, r)
	if msg != "" {
		response.Error(w, http.StatusBadRequest, msg, nil)
		return
	}
	defer closeFn()

	result, err := h.meetingUsecase.ImportMeetingsCSV(r.Context(), body)
	if err != nil {
		response.FromError(w, err, "Failed to import meetings")
		return
	}

	response.Success(w, http.StatusOK, "Meeting import processed", result)
}

func (h *ImportHandler) ImportBookings(w http.ResponseWriter, r *http.Request) {
	body, closeFn, msg := h.csvBody(w, r)
	if msg != "" {
		response.Error(w, http.StatusBadRequest, msg, nil)
		return
	}
	defer closeFn()

	result, err := h.bookingImport.ImportBookingsCSV(r.Context(), body)
	if err != nil {
		response.FromError(w, err, "Failed to import bookings")
		return
	}

	response.Success(w, http.StatusOK, "Booking import processed", result)
}

// csvBody returns the upload reader, or a client-facing message when the request is unusable.
func (h *ImportHandler) csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, ""
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, "Invalid multipart upload"
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, "File field is required"
	}
	return file, func() { file.Close() }, ""
}
