package medications

import (
	"errors"
	"testing"
)

func validDraft() Draft {
	return Draft{
		Name:      "Metformin",
		Dosage:    "500mg",
		Frequency: "twice_daily",
		TimeOfDay: []string{"08:00", "20:00"},
		StartDate: "2025-03-01",
	}
}

func TestBuild_OK(t *testing.T) {
	m, err := Build(validDraft())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.Frequency != FrequencyTwiceDaily {
		t.Fatalf("expected twice_daily, got %q", m.Frequency)
	}
	if len(m.TimeOfDay) != 2 || m.TimeOfDay[1].String() != "20:00" {
		t.Fatalf("unexpected slots: %v", m.TimeOfDay)
	}
	if m.EndDate != nil {
		t.Fatalf("expected no end date")
	}
	if !m.Active {
		t.Fatalf("new medication must be active")
	}
}

func TestBuild_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(d *Draft)
		field string
	}{
		{"missing name", func(d *Draft) { d.Name = "  " }, "name"},
		{"missing dosage", func(d *Draft) { d.Dosage = "" }, "dosage"},
		{"unknown frequency", func(d *Draft) { d.Frequency = "hourly" }, "frequency"},
		{"slot count mismatch", func(d *Draft) { d.TimeOfDay = []string{"08:00"} }, "time_of_day"},
		{"bad slot", func(d *Draft) { d.TimeOfDay = []string{"08:00", "25:00"} }, "time_of_day"},
		{"duplicate slot", func(d *Draft) { d.TimeOfDay = []string{"08:00", "08:00"} }, "time_of_day"},
		{"weekly without slot", func(d *Draft) { d.Frequency = "weekly"; d.TimeOfDay = nil }, "time_of_day"},
		{"missing start", func(d *Draft) { d.StartDate = "" }, "start_date"},
		{"bad start", func(d *Draft) { d.StartDate = "01/03/2025" }, "start_date"},
		{"end before start", func(d *Draft) { d.EndDate = "2025-02-28" }, "end_date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.edit(&d)

			_, err := Build(d)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestBuild_AsNeededNeedsNoSlots(t *testing.T) {
	d := validDraft()
	d.Frequency = "as_needed"
	d.TimeOfDay = nil

	if _, err := Build(d); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestBuild_EndEqualsStartIsValid(t *testing.T) {
	d := validDraft()
	d.EndDate = d.StartDate

	m, err := Build(d)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m.EndDate == nil || *m.EndDate != m.StartDate {
		t.Fatalf("expected end == start, got %v", m.EndDate)
	}
}

func TestDraftOf_RoundTrip(t *testing.T) {
	d := validDraft()
	d.EndDate = "2025-04-01"
	d.Notes = "with food"

	m, err := Build(d)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	again, err := Build(DraftOf(m))
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if again.Name != m.Name || *again.EndDate != *m.EndDate || again.Notes != m.Notes {
		t.Fatalf("round trip mismatch: %+v vs %+v", again, m)
	}
}
