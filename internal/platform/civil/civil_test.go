package civil

import (
	"testing"
	"time"
)

func TestParseDate_AcceptsISODateTimePrefix(t *testing.T) {
	d, err := ParseDate("2025-03-09T00:00:00")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d != (Date{Year: 2025, Month: time.March, Day: 9}) {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDate_AddDaysAndDaysSince(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	if got := d.AddDays(2); got.String() != "2024-03-01" {
		t.Fatalf("expected 2024-03-01, got %s", got)
	}
	if got := d.AddDays(-59); got.String() != "2023-12-31" {
		t.Fatalf("expected 2023-12-31, got %s", got)
	}
	if n := d.AddDays(10).DaysSince(d); n != 10 {
		t.Fatalf("expected 10 days, got %d", n)
	}
	if n := d.DaysSince(d.AddDays(3)); n != -3 {
		t.Fatalf("expected -3 days, got %d", n)
	}
}

func TestDate_DaysSince_AcrossDST(t *testing.T) {
	// 2025-03-09 es cambio de horario en America/New_York; DaysSince no depende de zona.
	a := Date{Year: 2025, Month: time.March, Day: 8}
	b := Date{Year: 2025, Month: time.March, Day: 10}
	if n := b.DaysSince(a); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestDate_At_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	d := Date{Year: 2025, Month: time.January, Day: 1}
	at := d.At(Clock{Hour: 8}, loc)
	if at.UTC().Hour() != 13 {
		t.Fatalf("expected 13:00 UTC, got %s", at.UTC())
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]string{
		"08:00":    "08:00",
		" 8:05":    "08:05",
		"20:30:00": "20:30",
		"24:00":    "",
	}
	for in, want := range cases {
		c, err := ParseClock(in)
		if want == "" {
			if err == nil {
				t.Fatalf("%q: expected error, got %s", in, c)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if c.String() != want {
			t.Fatalf("%q: expected %s, got %s", in, want, c)
		}
	}
}

func TestMinMaxDate(t *testing.T) {
	a := Date{Year: 2025, Month: 1, Day: 1}
	b := Date{Year: 2025, Month: 1, Day: 2}
	if MinDate(a, b) != a || MinDate(b, a) != a {
		t.Fatalf("MinDate wrong")
	}
	if MaxDate(a, b) != b || MaxDate(b, a) != b {
		t.Fatalf("MaxDate wrong")
	}
}
