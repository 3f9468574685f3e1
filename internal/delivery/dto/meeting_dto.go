package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateMeetingRequest struct {
	DoctorName  string     `json:"doctor_name" validate:"required,min=2,max=255"`
	DoctorPhone string     `json:"doctor_phone" validate:"required,indian_phone"`
	Locality    string     `json:"locality" validate:"omitempty,max=255"`
	Latitude    *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	GPSLink     string     `json:"gps_link" validate:"omitempty,url"`
	MeetingType string     `json:"meeting_type" validate:"required,oneof=physical call"`
	Duration    int        `json:"duration" validate:"min=0,max=1440"`
	Photos      []string   `json:"photos" validate:"omitempty,dive,url"`
	Notes       string     `json:"notes"`
	Summary     string     `json:"summary"`
	GPSVerified bool       `json:"gps_verified"`
	MeetingTime *time.Time `json:"meeting_time"`
}

// Response DTOs

type MeetingResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	AgentID     uuid.UUID `json:"agent_id"`
	AgentName   string    `json:"agent_name,omitempty"`
	MeetingType string    `json:"meeting_type"`
	Duration    int       `json:"duration"`
	Locality    string    `json:"locality,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Photos      []string  `json:"photos"`
	Notes       string    `json:"notes,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	GPSVerified bool      `json:"gps_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateMeetingResponse struct {
	Meeting       MeetingResponse `json:"meeting"`
	DoctorID      uuid.UUID       `json:"doctor_id"`
	DoctorPhone   string          `json:"doctor_phone"`
	DoctorCreated bool            `json:"doctor_created"`
	Window        WindowResponse  `json:"window"`
}

type WindowResponse struct {
	OnboardingDate  time.Time  `json:"onboarding_date"`
	LastMeeting     time.Time  `json:"last_meeting"`
	AssignedAgentID *uuid.UUID `json:"assigned_agent_id,omitempty"`
}

type MeetingListResponse struct {
	Meetings []MeetingResponse `json:"meetings"`
	Total    int               `json:"total"`
}
