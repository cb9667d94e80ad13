package parser

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/source"
)

const userAgent = "GrowthRanker/1.0"

func defaultHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return client
}

// open returns the source body from a URL or a local file.
func open(ctx context.Context, client *http.Client, req source.Request) (io.ReadCloser, error) {
	if req.URL == "" {
		if req.Path == "" {
			return nil, fmt.Errorf("source %s has neither path nor url", req.SourceName)
		}
		f, err := os.Open(req.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", req.Path, err)
		}
		return f, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", req.URL, resp.Status)
	}
	return resp.Body, nil
}

// columnKey normalises a header cell ("Operating Margin" -> "operating_margin").
func columnKey(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	key = strings.Join(strings.Fields(key), "_")
	switch key {
	case "name", "company":
		return "company_name"
	case "margin":
		return "operating_margin"
	case "growth":
		return "growth_forecast"
	}
	return key
}

// parseNumber reads "0.42", "42%" or "" (absent).
func parseNumber(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	scale := 1.0
	if strings.HasSuffix(raw, "%") {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
		scale = 100
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("invalid number %q: not finite", raw)
	}
	v /= scale
	return &v, nil
}

// companyFromColumns builds a company from a header->cell mapping.
func companyFromColumns(cols map[string]string) (domain.Company, error) {
	company := domain.Company{
		Name:   strings.TrimSpace(cols["company_name"]),
		Sector: strings.TrimSpace(cols["sector"]),
	}

	margin, err := parseNumber(cols["operating_margin"])
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s operating_margin: %w", company.Name, err)
	}
	growth, err := parseNumber(cols["growth_forecast"])
	if err != nil {
		return domain.Company{}, fmt.Errorf("%s growth_forecast: %w", company.Name, err)
	}

	company.OperatingMargin = margin
	company.GrowthForecast = growth
	return company, nil
}
