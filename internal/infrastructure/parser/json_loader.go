package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/source"
)

// JSONLoader reads an array of company objects.
type JSONLoader struct {
	client *http.Client
}

var _ source.Loader = (*JSONLoader)(nil)

func NewJSONLoader(client *http.Client) *JSONLoader {
	return &JSONLoader{client: defaultHTTPClient(client)}
}

func (l *JSONLoader) Name() string { return "json" }

func (l *JSONLoader) Load(ctx context.Context, req source.Request) ([]domain.Company, error) {
	body, err := open(ctx, l.client, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var companies []domain.Company
	if err := json.NewDecoder(body).Decode(&companies); err != nil {
		return nil, fmt.Errorf("decode %s: %w", req.Location(), err)
	}
	return companies, nil
}
