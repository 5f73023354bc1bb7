package openfda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medication-adherence/internal/domain/interactions"
)

// fakeFDA responde según el brand_name buscado.
func fakeFDA(t *testing.T, labels map[string]string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drug/label.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		search := r.URL.Query().Get("search")
		for brand, text := range labels {
			if strings.HasPrefix(search, `openfda.brand_name:"`+brand+`"`) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"results": []map[string]any{{"drug_interactions": []string{text}}},
				})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND"}}`))
	}))
}

func TestSource_FindsInEitherDirection(t *testing.T) {
	srv := fakeFDA(t, map[string]string{
		"warfarin": "Avoid concomitant use with ibuprofen; bleeding risk.",
	}, 0)
	defer srv.Close()

	s, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// ibuprofen < warfarin: la etiqueta encontrada es la de la segunda.
	rule, ok, err := s.Find(context.Background(), "Warfarin", "Ibuprofen")
	if err != nil || !ok {
		t.Fatalf("expected rule, ok=%v err=%v", ok, err)
	}
	if rule.DrugA != "ibuprofen" || rule.DrugB != "warfarin" {
		t.Fatalf("pair not normalized: %+v", rule)
	}
	if rule.Severity != interactions.SeveritySevere {
		t.Fatalf("expected severe, got %s", rule.Severity)
	}
}

func TestSource_NoMentionIsMiss(t *testing.T) {
	srv := fakeFDA(t, map[string]string{
		"lisinopril": "May interact with potassium supplements.",
	}, 0)
	defer srv.Close()

	s, _ := New(srv.URL, time.Second)
	if _, ok, err := s.Find(context.Background(), "lisinopril", "metformin"); ok || err != nil {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestSource_UpstreamErrorPropagates(t *testing.T) {
	srv := fakeFDA(t, nil, http.StatusInternalServerError)
	defer srv.Close()

	s, _ := New(srv.URL, time.Second)
	if _, _, err := s.Find(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestSource_TruncatesDescription(t *testing.T) {
	long := "metformin " + strings.Repeat("x", 800)
	srv := fakeFDA(t, map[string]string{"glipizide": long}, 0)
	defer srv.Close()

	s, _ := New(srv.URL, time.Second)
	rule, ok, err := s.Find(context.Background(), "glipizide", "metformin")
	if err != nil || !ok {
		t.Fatalf("expected rule, ok=%v err=%v", ok, err)
	}
	if n := len([]rune(rule.Description)); n != maxDescription {
		t.Fatalf("expected %d runes, got %d", maxDescription, n)
	}
}

func TestSeverityOf(t *testing.T) {
	cases := map[string]interactions.Severity{
		"Contraindicated with MAO inhibitors": interactions.SeveritySevere,
		"severe hypotension":                  interactions.SeveritySevere,
		"minimal effect on absorption":        interactions.SeverityMinor,
		"Minor changes in levels":             interactions.SeverityMinor,
		"monitor blood pressure":              interactions.SeverityModerate,
	}
	for text, want := range cases {
		if got := SeverityOf(text); got != want {
			t.Errorf("SeverityOf(%q) = %s, want %s", text, got, want)
		}
	}
}
