package converter

import (
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
)

// MeetingToResponse converts a DoctorMeeting entity to MeetingResponse DTO
func MeetingToResponse(meeting *entity.DoctorMeeting) *dto.MeetingResponse {
	if meeting == nil {
		return nil
	}

	response := &dto.MeetingResponse{
		ID:          meeting.ID,
		DoctorID:    meeting.DoctorID,
		AgentID:     meeting.AgentID,
		MeetingType: meeting.MeetingType,
		Duration:    meeting.DurationMinutes,
		Locality:    meeting.Locality,
		Latitude:    meeting.Latitude,
		Longitude:   meeting.Longitude,
		Photos:      stringsOrEmpty(meeting.Photos),
		Notes:       meeting.Notes,
		Summary:     meeting.Summary,
		GPSVerified: meeting.GPSVerified,
		CreatedAt:   meeting.CreatedAt,
	}
	if meeting.Agent != nil {
		response.AgentName = meeting.Agent.FullName()
	}

	return response
}

// MeetingsToResponses converts a slice of DoctorMeeting entities to MeetingResponse DTOs
func MeetingsToResponses(meetings []entity.DoctorMeeting) []dto.MeetingResponse {
	responses := make([]dto.MeetingResponse, len(meetings))
	for i := range meetings {
		responses[i] = *MeetingToResponse(&meetings[i])
	}
	return responses
}

// WindowToResponse converts an ActivityWindow to WindowResponse DTO
func WindowToResponse(w entity.ActivityWindow) dto.WindowResponse {
	response := dto.WindowResponse{
		OnboardingDate: w.OnboardingDate,
		LastMeeting:    w.LastMeeting,
	}
	if w.AssignedAgentID != uuid.Nil {
		agentID := w.AssignedAgentID
		response.AssignedAgentID = &agentID
	}
	return response
}

func stringsOrEmpty(list entity.StringList) []string {
	if list == nil {
		return []string{}
	}
	return []string(list)
}
