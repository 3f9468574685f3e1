package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"healthcare-crm-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type renderedStatement struct {
	sql  string
	vars int
}

// dryRunDB renders statements through the postgres dialector without a server
// and records every query it would have sent.
func dryRunDB(t *testing.T) (*gorm.DB, *[]renderedStatement) {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=crm dbname=crm sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var rendered []renderedStatement
	record := func(tx *gorm.DB) {
		rendered = append(rendered, renderedStatement{sql: tx.Statement.SQL.String(), vars: len(tx.Statement.Vars)})
	}
	if err := db.Callback().Row().After("gorm:row").Register("test:record_row", record); err != nil {
		t.Fatalf("register row callback: %v", err)
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:record_query", record); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	return db, &rendered
}

func TestChunkSizeFor(t *testing.T) {
	cases := []struct {
		requested, columns, want int
	}{
		{5000, 12, 5000},
		{0, 12, 65535 / 12},
		{-1, 17, 65535 / 17},
		{10000, 17, 65535 / 17},
	}
	for _, tc := range cases {
		if got := chunkSizeFor(tc.requested, tc.columns); got != tc.want {
			t.Errorf("chunkSizeFor(%d, %d): expected %d, got %d", tc.requested, tc.columns, tc.want, got)
		}
	}
}

func TestInsertIgnoringStatement(t *testing.T) {
	query, args := insertIgnoringStatement("doctors", []string{"full_name", "phone"}, "phone", [][]interface{}{
		{"Dr Rao", "9876543210"},
		{"Dr Iyer", "9876543211"},
	})

	want := "INSERT INTO doctors (full_name, phone) VALUES (?,?), (?,?) ON CONFLICT (phone) DO NOTHING RETURNING id::text AS id, phone AS key"
	if query != want {
		t.Errorf("unexpected statement\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 4 || args[0] != "Dr Rao" || args[3] != "9876543211" {
		t.Errorf("expected args in row order, got %v", args)
	}
}

func TestDoctorInsertBatch_RendersInsertIgnoringConflicts(t *testing.T) {
	db, rendered := dryRunDB(t)
	agentID := uuid.New()
	at := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	doctors := []entity.Doctor{
		{FullName: "Dr Rao", Phone: "9876543210", OnboardingDate: at, LastMeeting: at, AssignedAgentID: &agentID},
		{FullName: "Dr Iyer", Phone: "9876543211", OnboardingDate: at, LastMeeting: at, AssignedAgentID: &agentID},
	}

	_, err := NewDoctorRepository().InsertBatch(db, doctors, 5000)
	if !errors.Is(err, gorm.ErrDryRunModeUnsupported) {
		t.Fatalf("expected the dry run to stop at the scan, got %v", err)
	}
	if len(*rendered) != 1 {
		t.Fatalf("expected one statement for one chunk, got %d", len(*rendered))
	}

	stmt := (*rendered)[0]
	if !strings.HasPrefix(stmt.sql, "INSERT INTO doctors (full_name, phone, ") {
		t.Errorf("unexpected statement start: %s", stmt.sql)
	}
	if !strings.HasSuffix(stmt.sql, "ON CONFLICT (phone) DO NOTHING RETURNING id::text AS id, phone AS key") {
		t.Errorf("expected conflict-skipping insert returning the phone, got %s", stmt.sql)
	}
	columns := len(doctorInsertColumns)
	if stmt.vars != 2*columns {
		t.Errorf("expected %d bind vars, got %d", 2*columns, stmt.vars)
	}
	if !strings.Contains(stmt.sql, "($1,") || !strings.Contains(stmt.sql, "$24)") || strings.Contains(stmt.sql, "?") {
		t.Errorf("expected postgres placeholders $1..$24, got %s", stmt.sql)
	}
}

func TestLockSnapshot_LocksOnlyTheBookingRow(t *testing.T) {
	db, rendered := dryRunDB(t)

	if _, err := NewOpdBookingRepository().LockSnapshot(db, "X7Y8Z9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*rendered) != 1 {
		t.Fatalf("expected one statement, got %d", len(*rendered))
	}

	sql := (*rendered)[0].sql
	for _, fragment := range []string{
		"FROM opd_bookings AS b",
		"LEFT JOIN agents a ON a.id = b.created_by_agent_id",
		"LEFT JOIN doctors d ON d.id = b.referee_id",
		"b.booking_reference = $1",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("expected %q in %s", fragment, sql)
		}
	}
	if !strings.HasSuffix(sql, `FOR UPDATE OF "b"`) {
		t.Errorf("expected the lock scoped to the booking alias, got %s", sql)
	}
}
