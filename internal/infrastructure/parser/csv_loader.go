package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/source"
)

// CSVLoader reads a headed CSV file; column order is free.
type CSVLoader struct {
	client *http.Client
}

var _ source.Loader = (*CSVLoader)(nil)

func NewCSVLoader(client *http.Client) *CSVLoader {
	return &CSVLoader{client: defaultHTTPClient(client)}
}

func (l *CSVLoader) Name() string { return "csv" }

func (l *CSVLoader) Load(ctx context.Context, req source.Request) ([]domain.Company, error) {
	body, err := open(ctx, l.client, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.TrimLeadingSpace = true
	if sep := req.Options["separator"]; sep != "" {
		reader.Comma = []rune(sep)[0]
	}

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", req.Location(), err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = columnKey(h)
	}

	var companies []domain.Company
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", req.Location(), line, err)
		}

		cols := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(row) {
				cols[key] = row[i]
			}
		}

		company, err := companyFromColumns(cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", req.Location(), line, err)
		}
		companies = append(companies, company)
	}

	return companies, nil
}
