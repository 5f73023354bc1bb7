package openfda

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medication-adherence/internal/domain/interactions"
	"medication-adherence/internal/platform/httpclient"
)

const (
	DefaultBaseURL = "https://api.fda.gov"
	labelPath      = "/drug/label.json"

	maxDescription = 500
)

// Source consulta las etiquetas de openFDA. Un par se considera conocido si la
// sección drug_interactions de la etiqueta de una droga nombra a la otra.
type Source struct {
	client *httpclient.Client
}

func New(baseURL string, timeout time.Duration) (*Source, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &Source{client: c}, nil
}

type labelResponse struct {
	Results []struct {
		DrugInteractions []string `json:"drug_interactions"`
	} `json:"results"`
}

func (s *Source) Find(ctx context.Context, a, b string) (interactions.Rule, bool, error) {
	a, b = interactions.Pair(a, b)
	if a == "" || b == "" || a == b {
		return interactions.Rule{}, false, nil
	}

	// La etiqueta de cualquiera de las dos puede mencionar a la otra.
	for _, p := range [][2]string{{a, b}, {b, a}} {
		text, err := s.label(ctx, p[0], p[1])
		if err != nil {
			return interactions.Rule{}, false, err
		}
		if text == "" || !strings.Contains(strings.ToLower(text), p[1]) {
			continue
		}
		rule, err := interactions.NewRule(a, b, SeverityOf(text), truncate(text, maxDescription))
		if err != nil {
			return interactions.Rule{}, false, err
		}
		return rule, true, nil
	}
	return interactions.Rule{}, false, nil
}

func (s *Source) label(ctx context.Context, brand, other string) (string, error) {
	q := url.Values{}
	q.Set("search", fmt.Sprintf("openfda.brand_name:%q AND drug_interactions:%q", brand, other))
	q.Set("limit", "1")

	var out labelResponse
	err := s.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   labelPath,
		Query:  q,
		Out:    &out,
	})
	if err != nil {
		// openFDA responde 404 cuando la búsqueda no tiene resultados.
		if httpclient.StatusOf(err) == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("openfda label %s: %w", brand, err)
	}
	if len(out.Results) == 0 || len(out.Results[0].DrugInteractions) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Results[0].DrugInteractions[0]), nil
}

// SeverityOf infiere la gravedad por palabras clave del texto de la etiqueta.
func SeverityOf(text string) interactions.Severity {
	t := strings.ToLower(text)
	for _, w := range []string{"severe", "contraindicated", "avoid"} {
		if strings.Contains(t, w) {
			return interactions.SeveritySevere
		}
	}
	for _, w := range []string{"minor", "minimal"} {
		if strings.Contains(t, w) {
			return interactions.SeverityMinor
		}
	}
	return interactions.SeverityModerate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
