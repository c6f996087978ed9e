package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"islandstay/internal/models"
)

// Query builds a single table request using PostgREST operators.
type Query struct {
	client *Client
	table  string
	method string
	params url.Values
	body   any
	single bool
	maybe  bool
	prefer []string
}

// From starts a query against table.
func (c *Client) From(table string) *Query {
	return &Query{
		client: c,
		table:  table,
		method: http.MethodGet,
		params: url.Values{},
	}
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", strings.Join(strings.Fields(columns), ""))
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.params.Add(column, "eq."+formatValue(value))
	return q
}

// ILike adds a case-insensitive LIKE; pattern uses % wildcards.
func (q *Query) ILike(column, pattern string) *Query {
	q.params.Add(column, "ilike."+pattern)
	return q
}

func (q *Query) Gte(column string, value any) *Query {
	q.params.Add(column, "gte."+formatValue(value))
	return q
}

func (q *Query) Lte(column string, value any) *Query {
	q.params.Add(column, "lte."+formatValue(value))
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.params.Set("limit", fmt.Sprintf("%d", n))
	}
	return q
}

// Single expects exactly one row; zero rows yields a not_found error.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// MaybeSingle expects at most one row; zero rows yields a null response.
func (q *Query) MaybeSingle() *Query {
	q.single = true
	q.maybe = true
	return q
}

func (q *Query) Insert(row any) *Query {
	q.method = http.MethodPost
	q.body = row
	q.prefer = append(q.prefer, "return=representation")
	return q
}

func (q *Query) Update(fields any) *Query {
	q.method = http.MethodPatch
	q.body = fields
	q.prefer = append(q.prefer, "return=representation")
	return q
}

func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	q.prefer = append(q.prefer, "return=representation")
	return q
}

// Params exposes the encoded query string, mostly for tests and logging.
func (q *Query) Params() url.Values {
	return q.params
}

// Execute runs the query with the caller's credentials.
func (q *Query) Execute(ctx context.Context, creds models.Credentials) (*Response, error) {
	headers := http.Header{}
	if q.single {
		headers.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if len(q.prefer) > 0 {
		headers.Set("Prefer", strings.Join(q.prefer, ","))
	}

	resp, err := q.client.do(ctx, call{
		op:      strings.ToLower(q.method) + "." + q.table,
		method:  q.method,
		path:    "/rest/v1/" + url.PathEscape(q.table),
		query:   q.params,
		headers: headers,
		body:    q.body,
		creds:   creds,
	})
	if err != nil {
		if q.maybe && IsNotFound(err) {
			return &Response{Status: http.StatusOK, Data: []byte("null")}, nil
		}
		return nil, err
	}
	return resp, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case models.ID:
		return string(t)
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
