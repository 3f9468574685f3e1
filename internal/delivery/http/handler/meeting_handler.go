package handler

import (
	"encoding/json"
	"net/http"

	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/usecase"
	"healthcare-crm-backend/pkg/response"
	"healthcare-crm-backend/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type MeetingHandler struct {
	meetingUsecase usecase.DoctorMeetingUsecase
	validator      *validator.CustomValidator
}

func NewMeetingHandler(meetingUsecase usecase.DoctorMeetingUsecase, validator *validator.CustomValidator) *MeetingHandler {
	return &MeetingHandler{
		meetingUsecase: meetingUsecase,
		validator:      validator,
	}
}

func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	meeting, err := h.meetingUsecase.CreateMeeting(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, "Failed to create meeting")
		return
	}

	response.Success(w, http.StatusCreated, "Meeting created successfully", meeting)
}

func (h *MeetingHandler) ListDoctorMeetings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	meetings, err := h.meetingUsecase.ListDoctorMeetings(r.Context(), doctorID)
	if err != nil {
		response.FromError(w, err, "Failed to get meetings")
		return
	}

	response.Success(w, http.StatusOK, "Meetings retrieved successfully", meetings)
}

func (h *MeetingHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	meetingID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid meeting ID", nil)
		return
	}

	if err := h.meetingUsecase.DeleteMeeting(r.Context(), meetingID); err != nil {
		response.FromError(w, err, "Failed to delete meeting")
		return
	}

	response.Success(w, http.StatusOK, "Meeting deleted successfully", nil)
}
