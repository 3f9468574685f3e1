package entity

import "github.com/google/uuid"

// DoctorRef points a dependent row at its doctor: either an existing id, or a
// doctor that is only known by phone until the insert phase returns its id.
type DoctorRef struct {
	id    uuid.UUID
	phone string
}

// ResolvedDoctor references a doctor that already has an id.
func ResolvedDoctor(id uuid.UUID) DoctorRef {
	return DoctorRef{id: id}
}

// PendingDoctor references a doctor that will be created in this batch.
func PendingDoctor(phone string) DoctorRef {
	return DoctorRef{phone: phone}
}

// IsPending reports whether the reference still waits for an id.
func (r DoctorRef) IsPending() bool {
	return r.id == uuid.Nil
}

// ID returns the doctor id; only meaningful when not pending.
func (r DoctorRef) ID() uuid.UUID {
	return r.id
}

// Phone returns the natural key of a pending reference.
func (r DoctorRef) Phone() string {
	return r.phone
}

// Resolve turns a pending reference into a resolved one using ids returned by
// the insert phase. ok is false when the id is missing.
func (r DoctorRef) Resolve(created map[string]uuid.UUID) (DoctorRef, bool) {
	if !r.IsPending() {
		return r, true
	}
	id, found := created[r.phone]
	if !found || id == uuid.Nil {
		return r, false
	}
	return ResolvedDoctor(id), true
}
