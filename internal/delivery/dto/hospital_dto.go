package dto

import "github.com/google/uuid"

type HospitalResponse struct {
	ID      uuid.UUID `json:"id"`
	City    string    `json:"city"`
	Name    string    `json:"name"`
	GroupID string    `json:"group_id,omitempty"`
	Code    string    `json:"code,omitempty"`
}

type CityListResponse struct {
	Cities []string `json:"cities"`
}
