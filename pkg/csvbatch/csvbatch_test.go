package csvbatch

import (
	"strings"
	"testing"
	"time"

	"healthcare-crm-backend/pkg/apperr"
)

var testSchema = Schema{
	Name: "test",
	Fields: []Field{
		{Name: "name", Kind: String, Required: true},
		{Name: "phone", Kind: Phone, Required: true},
		{Name: "count", Kind: Int},
		{Name: "lat", Kind: Float},
		{Name: "at", Kind: Time, Required: true},
	},
}

func TestParse_SkipsHeaderAndNumbersRowsByLine(t *testing.T) {
	input := "name,phone,count,lat,at\n" +
		"Dr A,9876543210,3,12.5,2024-01-10T10:00:00Z\n" +
		"\n" +
		"Dr B,+91 98765 43211,,,2024-01-05 09:00:00\n"

	batch, err := Parse(strings.NewReader(input), testSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(batch.Records))
	}
	if batch.Records[0].RowNumber != 2 || batch.Records[1].RowNumber != 4 {
		t.Errorf("unexpected row numbers %d, %d", batch.Records[0].RowNumber, batch.Records[1].RowNumber)
	}

	first := batch.Records[0]
	if first.String("name") != "Dr A" {
		t.Errorf("expected name Dr A, got %q", first.String("name"))
	}
	if first.Int("count") != 3 {
		t.Errorf("expected count 3, got %d", first.Int("count"))
	}
	if lat, ok := first.Float("lat"); !ok || lat != 12.5 {
		t.Errorf("expected lat 12.5, got %v (%v)", lat, ok)
	}
	want := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	if !first.Time("at").Equal(want) {
		t.Errorf("expected %v, got %v", want, first.Time("at"))
	}

	second := batch.Records[1]
	if second.Phone("phone") != "9876543211" {
		t.Errorf("expected normalized phone, got %q", second.Phone("phone"))
	}
	if _, ok := second.Float("lat"); ok {
		t.Error("expected empty lat to be absent")
	}
}

func TestParse_RejectsColumnCountAndBadValues(t *testing.T) {
	input := "name,phone,count,lat,at\n" +
		"Dr A,9876543210,3,12.5\n" +
		"Dr B,12345,1,1,2024-01-01\n" +
		"Dr C,9876543212,x,1,2024-01-01\n" +
		",9876543213,1,1,2024-01-01\n" +
		"Dr, Comma,9876543214,1,1,2024-01-01\n" +
		"Dr E,9876543215,1,1,not-a-date\n" +
		"Dr F,9876543216,1,1,2024-01-01\n"

	batch, err := Parse(strings.NewReader(input), testSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Records) != 1 {
		t.Fatalf("expected 1 accepted record, got %d", len(batch.Records))
	}
	if len(batch.Rejected) != 6 {
		t.Fatalf("expected 6 rejected rows, got %d", len(batch.Rejected))
	}

	wantRows := []int{2, 3, 4, 5, 6, 7}
	for i, rej := range batch.Rejected {
		if rej.RowNumber != wantRows[i] {
			t.Errorf("rejection %d: expected row %d, got %d", i, wantRows[i], rej.RowNumber)
		}
		if rej.Reason == "" {
			t.Errorf("rejection %d: empty reason", i)
		}
	}
	if !strings.Contains(batch.Rejected[1].Reason, "phone") {
		t.Errorf("expected phone reason, got %q", batch.Rejected[1].Reason)
	}
	if batch.Total() != 7 {
		t.Errorf("expected total 7, got %d", batch.Total())
	}
}

func TestParse_EmptyInputIsValidationError(t *testing.T) {
	for _, input := range []string{"", "name,phone,count,lat,at\n", "name,phone,count,lat,at\n\n\n"} {
		_, err := Parse(strings.NewReader(input), testSchema)
		if err == nil {
			t.Errorf("expected error for %q", input)
			continue
		}
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	}
}

func TestParseTime_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-05T09:00:00Z": time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		"2024-01-05 09:00:00":  time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		"2024-01-05":           time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		"05/01/2024 09:00:00":  time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		"05/01/2024":           time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseTime(in)
		if err != nil {
			t.Errorf("ParseTime(%q) error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTime(%q) = %v, expected %v", in, got, want)
		}
	}
}
