package service

import (
	"strings"

	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/domain/repository"
	"healthcare-crm-backend/pkg/apperr"
	"healthcare-crm-backend/pkg/phone"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorIdentity is an existing doctor's id and reconciliation window.
type DoctorIdentity struct {
	ID     uuid.UUID
	Window entity.ActivityWindow
}

// IDMap maps a natural key to a canonical id.
type IDMap map[string]uuid.UUID

// Lookup returns the id for key or a ReferenceNotFound error echoing raw.
func (m IDMap) Lookup(key, raw, what string) (uuid.UUID, error) {
	if id, ok := m[key]; ok {
		return id, nil
	}
	return uuid.Nil, apperr.ReferenceNotFound(what+" not found", raw)
}

// IdentityResolver maps natural keys to ids with at most one query per
// entity type per call.
type IdentityResolver interface {
	LoadDoctors(db *gorm.DB, phones []string) (map[string]DoctorIdentity, error)
	ResolveDoctors(db *gorm.DB, phones []string) (IDMap, error)
	ResolveAgentsByPhone(db *gorm.DB, phones []string) (IDMap, error)
	ResolveAgentsByName(db *gorm.DB, names []string) (IDMap, error)
	ResolveHospitals(db *gorm.DB, keys []entity.HospitalKey) (map[string]entity.Hospital, error)
}

type identityResolver struct {
	doctorRepo   repository.DoctorRepository
	agentRepo    repository.AgentRepository
	hospitalRepo repository.HospitalRepository
}

func NewIdentityResolver(
	doctorRepo repository.DoctorRepository,
	agentRepo repository.AgentRepository,
	hospitalRepo repository.HospitalRepository,
) IdentityResolver {
	return &identityResolver{
		doctorRepo:   doctorRepo,
		agentRepo:    agentRepo,
		hospitalRepo: hospitalRepo,
	}
}

// NameKey is the lookup form of an agent name.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// normalizePhones canonicalizes and dedupes; invalid inputs are skipped since
// callers report them as row validation failures.
func normalizePhones(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		p, err := phone.Normalize(r)
		if err != nil {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (r *identityResolver) LoadDoctors(db *gorm.DB, phones []string) (map[string]DoctorIdentity, error) {
	keys := normalizePhones(phones)
	result := make(map[string]DoctorIdentity, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	doctors, err := r.doctorRepo.FindByPhones(db, keys)
	if err != nil {
		return nil, err
	}
	for i := range doctors {
		d := &doctors[i]
		result[d.Phone] = DoctorIdentity{ID: d.ID, Window: d.Window()}
	}
	return result, nil
}

func (r *identityResolver) ResolveDoctors(db *gorm.DB, phones []string) (IDMap, error) {
	loaded, err := r.LoadDoctors(db, phones)
	if err != nil {
		return nil, err
	}
	ids := make(IDMap, len(loaded))
	for p, d := range loaded {
		ids[p] = d.ID
	}
	return ids, nil
}

func (r *identityResolver) ResolveAgentsByPhone(db *gorm.DB, phones []string) (IDMap, error) {
	keys := normalizePhones(phones)
	ids := make(IDMap, len(keys))
	if len(keys) == 0 {
		return ids, nil
	}

	agents, err := r.agentRepo.FindByPhones(db, keys)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		ids[a.Phone] = a.ID
	}
	return ids, nil
}

// ResolveAgentsByName accepts either a bare first name or "first last".
// A full-name match wins; a first name shared by several agents with no
// full-name match stays unresolved.
func (r *identityResolver) ResolveAgentsByName(db *gorm.DB, names []string) (IDMap, error) {
	wanted := make(map[string]struct{}, len(names))
	keys := make([]string, 0, len(names))
	for _, n := range names {
		k := NameKey(n)
		if k == "" {
			continue
		}
		if _, ok := wanted[k]; ok {
			continue
		}
		wanted[k] = struct{}{}
		keys = append(keys, k)
	}
	ids := make(IDMap, len(keys))
	if len(keys) == 0 {
		return ids, nil
	}

	agents, err := r.agentRepo.FindByNames(db, keys)
	if err != nil {
		return nil, err
	}

	fullMatch := make(IDMap)
	firstMatches := make(map[string][]uuid.UUID)
	for i := range agents {
		a := &agents[i]
		full := NameKey(a.FullName())
		if _, ok := wanted[full]; ok {
			fullMatch[full] = a.ID
		}
		first := NameKey(a.FirstName)
		if _, ok := wanted[first]; ok {
			firstMatches[first] = append(firstMatches[first], a.ID)
		}
	}

	for _, k := range keys {
		if id, ok := fullMatch[k]; ok {
			ids[k] = id
			continue
		}
		if matches := firstMatches[k]; len(matches) == 1 {
			ids[k] = matches[0]
		}
	}
	return ids, nil
}

// ResolveHospitals is keyed by HospitalKey.String().
func (r *identityResolver) ResolveHospitals(db *gorm.DB, keys []entity.HospitalKey) (map[string]entity.Hospital, error) {
	seen := make(map[string]struct{}, len(keys))
	unique := make([]entity.HospitalKey, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k.Name) == "" {
			continue
		}
		if _, ok := seen[k.String()]; ok {
			continue
		}
		seen[k.String()] = struct{}{}
		unique = append(unique, k)
	}
	result := make(map[string]entity.Hospital, len(unique))
	if len(unique) == 0 {
		return result, nil
	}

	hospitals, err := r.hospitalRepo.FindByKeys(db, unique)
	if err != nil {
		return nil, err
	}
	for _, h := range hospitals {
		result[h.Key().String()] = h
	}
	return result, nil
}
