package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"healthcare-crm-backend/internal/delivery/dto"
	"healthcare-crm-backend/internal/domain/entity"
	"healthcare-crm-backend/internal/service"
	"healthcare-crm-backend/pkg/apperr"

	"github.com/google/uuid"
)

type meetingFixture struct {
	store    *memStore
	notifier *recordingNotifier
	uc       *doctorMeetingUsecase
	agentA   entity.Agent
	agentB   entity.Agent
}

func newMeetingFixture(t *testing.T) *meetingFixture {
	t.Helper()
	store := newMemStore()
	agentA := entity.Agent{ID: uuid.New(), FirstName: "Priya", Phone: "9000000001", Role: entity.RoleNDM}
	agentB := entity.Agent{ID: uuid.New(), FirstName: "Rahul", Phone: "9000000002", Role: entity.RoleNDM}
	store.agents = append(store.agents, agentA, agentB)

	doctors := &fakeDoctorRepo{store: store}
	meetings := &fakeMeetingRepo{store: store}
	resolver := service.NewIdentityResolver(doctors, &fakeAgentRepo{store: store}, &fakeHospitalRepo{})
	engine := service.NewBulkUpsertService(testLogger(), resolver, doctors, meetings, 2)
	notifier := &recordingNotifier{}

	uc := NewDoctorMeetingUsecase(memTransactor{store: store}, testLogger(), resolver, engine, notifier, doctors, meetings).(*doctorMeetingUsecase)
	uc.now = func() time.Time { return fixedNow }

	return &meetingFixture{store: store, notifier: notifier, uc: uc, agentA: agentA, agentB: agentB}
}

const meetingHeader = "doctor_name,doctor_phone,locality,latitude,longitude,gps_link,agent_phone,meeting_type,duration,summary,meeting_time\n"

func TestImportMeetingsCSV_ReconcilesAndReportsFailures(t *testing.T) {
	f := newMeetingFixture(t)
	input := meetingHeader +
		"Dr Rao,9876543210,Baner,18.5,73.8,,9000000001,physical,30,intro,2024-01-10T10:00:00Z\n" +
		"Dr Rao,+91 98765 43210,Baner,,,,9000000002,call,10,follow up,2024-01-05T09:00:00Z\n" +
		"Dr X,12345,,,,,9000000001,physical,5,,2024-01-06\n" +
		"Dr Y,9876543211,,,,,9999999999,physical,5,,2024-01-06\n" +
		"Dr Z,9876543212,,,,,9000000001,video,5,,2024-01-06\n"

	ctx := agentContext(f.agentA.ID, entity.RoleAdmin)
	result, err := f.uc.ImportMeetingsCSV(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalRows != 5 || result.NewlyCreatedCount != 1 || result.UpdatedCount != 0 || result.DependentCreatedCount != 2 || result.FailedCount != 3 {
		t.Fatalf("unexpected counts %+v", result)
	}
	wantRows := []int{4, 5, 6}
	for i, failure := range result.Failures {
		if failure.RowNumber != wantRows[i] {
			t.Errorf("failure %d: expected row %d, got %d (%s)", i, wantRows[i], failure.RowNumber, failure.Reason)
		}
	}

	d := f.store.doctors["9876543210"]
	if !d.OnboardingDate.Equal(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)) || !d.LastMeeting.Equal(time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected window %v .. %v", d.OnboardingDate, d.LastMeeting)
	}
	if d.AssignedAgentID == nil || *d.AssignedAgentID != f.agentA.ID {
		t.Errorf("expected doctor owned by agent A, got %v", d.AssignedAgentID)
	}
	if len(f.store.meetings) != 2 {
		t.Errorf("expected 2 meetings stored, got %d", len(f.store.meetings))
	}

	if len(f.notifier.imports) != 1 {
		t.Fatalf("expected one import notification, got %d", len(f.notifier.imports))
	}
	n := f.notifier.imports[0]
	if n.Action != entity.AuditActionMeetingImport || n.ActorID == nil || *n.ActorID != f.agentA.ID {
		t.Errorf("unexpected import notification %+v", n)
	}
}

func TestImportMeetingsCSV_SecondFileUpdatesExistingDoctor(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := context.Background()

	first := meetingHeader + "Dr Rao,9876543210,,,,,9000000001,physical,30,,2024-01-10T10:00:00Z\n"
	if _, err := f.uc.ImportMeetingsCSV(ctx, strings.NewReader(first)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	second := meetingHeader + "Dr Rao,9876543210,,,,,9000000002,call,5,,2024-01-05T09:00:00Z\n"
	result, err := f.uc.ImportMeetingsCSV(ctx, strings.NewReader(second))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.NewlyCreatedCount != 0 || result.UpdatedCount != 1 || result.DependentCreatedCount != 1 {
		t.Errorf("unexpected counts %+v", result)
	}

	d := f.store.doctors["9876543210"]
	if *d.AssignedAgentID != f.agentA.ID {
		t.Error("expected an older meeting not to reassign the doctor")
	}
	if !d.OnboardingDate.Equal(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected onboarding moved earlier, got %v", d.OnboardingDate)
	}
	if f.notifier.imports[1].ActorID != nil {
		t.Error("expected no actor for a system import")
	}
}

func TestImportMeetingsCSV_EmptyUpload(t *testing.T) {
	f := newMeetingFixture(t)
	_, err := f.uc.ImportMeetingsCSV(context.Background(), strings.NewReader(meetingHeader))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.notifier.imports) != 0 {
		t.Error("expected no import notification")
	}
}

func TestCreateMeeting_CreatesThenReconcilesDoctor(t *testing.T) {
	f := newMeetingFixture(t)
	later := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)

	resp, err := f.uc.CreateMeeting(agentContext(f.agentA.ID, entity.RoleNDM), &dto.CreateMeetingRequest{
		DoctorName:  "Dr Rao",
		DoctorPhone: "9876543210",
		MeetingType: "Physical",
		Duration:    20,
		MeetingTime: &later,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.DoctorCreated || resp.DoctorPhone != "9876543210" {
		t.Errorf("expected doctor created, got %+v", resp)
	}
	if !resp.Window.OnboardingDate.Equal(later) || !resp.Window.LastMeeting.Equal(later) {
		t.Errorf("unexpected window %+v", resp.Window)
	}

	resp, err = f.uc.CreateMeeting(agentContext(f.agentB.ID, entity.RoleNDM), &dto.CreateMeetingRequest{
		DoctorName:  "Dr Rao",
		DoctorPhone: "+91 98765 43210",
		MeetingType: "call",
		MeetingTime: &earlier,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DoctorCreated {
		t.Error("expected existing doctor reused")
	}
	if !resp.Window.OnboardingDate.Equal(earlier) || !resp.Window.LastMeeting.Equal(later) {
		t.Errorf("unexpected window %+v", resp.Window)
	}
	if resp.Window.AssignedAgentID == nil || *resp.Window.AssignedAgentID != f.agentA.ID {
		t.Errorf("expected agent A kept, got %v", resp.Window.AssignedAgentID)
	}
	if len(f.store.meetings) != 2 {
		t.Errorf("expected 2 meetings, got %d", len(f.store.meetings))
	}
	if actions := f.notifier.auditActions(); len(actions) != 2 || actions[0] != entity.AuditActionMeetingCreate {
		t.Errorf("unexpected audits %v", actions)
	}
}

func TestCreateMeeting_Validation(t *testing.T) {
	f := newMeetingFixture(t)

	if _, err := f.uc.CreateMeeting(context.Background(), &dto.CreateMeetingRequest{DoctorPhone: "9876543210", MeetingType: "call"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
	ctx := agentContext(f.agentA.ID, entity.RoleNDM)
	if _, err := f.uc.CreateMeeting(ctx, &dto.CreateMeetingRequest{DoctorPhone: "98765", MeetingType: "call"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for phone, got %v", err)
	}
	if _, err := f.uc.CreateMeeting(ctx, &dto.CreateMeetingRequest{DoctorPhone: "9876543210", MeetingType: "video"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for type, got %v", err)
	}
}

func TestListAndDeleteMeetings(t *testing.T) {
	f := newMeetingFixture(t)
	ctx := agentContext(f.agentA.ID, entity.RoleNDM)

	created, err := f.uc.CreateMeeting(ctx, &dto.CreateMeetingRequest{DoctorName: "Dr Rao", DoctorPhone: "9876543210", MeetingType: "call"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := f.uc.ListDoctorMeetings(ctx, created.DoctorID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 1 || list.Meetings[0].ID != created.Meeting.ID {
		t.Errorf("unexpected list %+v", list)
	}
	if _, err := f.uc.ListDoctorMeetings(ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected doctor not found, got %v", err)
	}

	if err := f.uc.DeleteMeeting(ctx, created.Meeting.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.uc.DeleteMeeting(ctx, created.Meeting.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected meeting not found, got %v", err)
	}
}
