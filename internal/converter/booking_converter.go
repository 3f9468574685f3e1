package converter

import (
	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
)

// BookingToResponse converts an OpdBooking entity to BookingResponse DTO
func BookingToResponse(booking *entity.OpdBooking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                  booking.ID,
		BookingReference:    booking.BookingReference,
		PatientName:         booking.PatientName,
		PatientPhone:        booking.PatientPhone,
		PatientAge:          booking.PatientAge,
		PatientGender:       booking.PatientGender,
		MedicalCondition:    booking.MedicalCondition,
		City:                booking.City,
		HospitalName:        booking.HospitalName,
		HospitalIDs:         stringsOrEmpty(booking.HospitalIDs),
		RefereeID:           booking.RefereeID,
		CreatedByAgentID:    booking.CreatedByAgentID,
		CurrentDisposition:  booking.CurrentDisposition,
		AppointmentTime:     booking.AppointmentTime,
		PaymentMode:         booking.PaymentMode,
		EstimatedAmount:     booking.EstimatedAmount,
		LastInteractionDate: booking.LastInteractionDate,
		DocumentURLs:        stringsOrEmpty(booking.DocumentURLs),
		CreatedAt:           booking.CreatedAt,
		UpdatedAt:           booking.UpdatedAt,
	}

	if booking.AppointmentDate != nil {
		date := booking.AppointmentDate.Format("2006-01-02")
		response.AppointmentDate = &date
	}
	if booking.Referee != nil {
		response.RefereeName = booking.Referee.FullName
	}
	if booking.CreatedByAgent != nil {
		response.CreatedByAgentName = booking.CreatedByAgent.FullName()
	}

	return response
}

// BookingsToResponses converts a slice of OpdBooking entities to BookingResponse DTOs
func BookingsToResponses(bookings []entity.OpdBooking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i])
	}
	return responses
}

// DispositionLogsToResponses converts disposition log rows to DTOs
func DispositionLogsToResponses(logs []entity.DispositionLog) []dto.DispositionLogResponse {
	responses := make([]dto.DispositionLogResponse, len(logs))
	for i, log := range logs {
		responses[i] = dto.DispositionLogResponse{
			ID:                  log.ID,
			PreviousDisposition: log.PreviousDisposition,
			NewDisposition:      log.NewDisposition,
			Notes:               log.Notes,
			HospitalName:        log.HospitalName,
			UpdatedByUserID:     log.UpdatedByUserID,
			CreatedAt:           log.CreatedAt,
		}
	}
	return responses
}
