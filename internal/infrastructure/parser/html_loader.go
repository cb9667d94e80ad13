package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"GrowthRanker/internal/domain"
	"GrowthRanker/internal/source"
)

const defaultTableSelector = "table"

// HTMLLoader extracts companies from an HTML table whose header row names
// the input columns. The "selector" option picks the table.
type HTMLLoader struct {
	client *http.Client
}

var _ source.Loader = (*HTMLLoader)(nil)

func NewHTMLLoader(client *http.Client) *HTMLLoader {
	return &HTMLLoader{client: defaultHTTPClient(client)}
}

func (h *HTMLLoader) Name() string { return "html" }

func (h *HTMLLoader) Load(ctx context.Context, req source.Request) ([]domain.Company, error) {
	body, err := open(ctx, h.client, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	selector := req.Options["selector"]
	if selector == "" {
		selector = defaultTableSelector
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table matches %q in %s", selector, req.Location())
	}

	return extractCompanies(table)
}

func extractCompanies(table *goquery.Selection) ([]domain.Company, error) {
	var keys []string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		headers := row.Find("th")
		if headers.Length() == 0 {
			return true
		}
		headers.Each(func(_ int, th *goquery.Selection) {
			keys = append(keys, columnKey(th.Text()))
		})
		return false
	})
	if len(keys) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	var (
		companies []domain.Company
		parseErr  error
	)
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}

		cols := make(map[string]string, len(keys))
		cells.Each(func(j int, td *goquery.Selection) {
			if j < len(keys) {
				cols[keys[j]] = strings.TrimSpace(td.Text())
			}
		})

		company, err := companyFromColumns(cols)
		if err != nil {
			parseErr = fmt.Errorf("row %d: %w", i, err)
			return false
		}
		companies = append(companies, company)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return companies, nil
}
