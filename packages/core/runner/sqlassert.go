package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/abdul-hamid-achik/apictl/packages/core/template"
	"github.com/abdul-hamid-achik/apictl/packages/db"
)

// SQLResult is the outcome of one sql assertion.
type SQLResult struct {
	Name     string
	Passed   bool
	Expected string
	Actual   string
	Message  string
}

// runSQLAsserts evaluates a step's sql assertions. Assertions group by
// connection string so each database opens once per step; connections
// close before the step completes.
func (r *Runner) runSQLAsserts(ctx context.Context, asserts []*config.SQLAssert, resolver *template.Resolver) []*SQLResult {
	if len(asserts) == 0 {
		return nil
	}

	results := make([]*SQLResult, len(asserts))

	type connGroup struct {
		dsn     string
		indexes []int
	}
	var groups []*connGroup
	byDSN := make(map[string]*connGroup)

	for i, a := range asserts {
		dsn, err := resolver.Resolve(a.Connection)
		if err != nil {
			results[i] = failedSQL(a, fmt.Sprintf("resolve connection: %v", err))
			continue
		}
		g, ok := byDSN[dsn]
		if !ok {
			g = &connGroup{dsn: dsn}
			byDSN[dsn] = g
			groups = append(groups, g)
		}
		g.indexes = append(g.indexes, i)
	}

	for _, g := range groups {
		r.runSQLGroup(ctx, g.dsn, g.indexes, asserts, results, resolver)
	}
	return results
}

func (r *Runner) runSQLGroup(ctx context.Context, dsn string, indexes []int, asserts []*config.SQLAssert, results []*SQLResult, resolver *template.Resolver) {
	client, err := db.Open(dsn)
	if err != nil {
		for _, i := range indexes {
			results[i] = failedSQL(asserts[i], err.Error())
		}
		return
	}
	defer client.Close()

	// Each distinct query text runs once.
	queryResults := make(map[string]*db.QueryResult)
	queryErrs := make(map[string]error)

	for _, i := range indexes {
		a := asserts[i]
		query, err := resolver.Resolve(a.Query)
		if err != nil {
			results[i] = failedSQL(a, fmt.Sprintf("resolve query: %v", err))
			continue
		}

		qr, ok := queryResults[query]
		if !ok {
			if qerr, seen := queryErrs[query]; seen {
				results[i] = failedSQL(a, qerr.Error())
				continue
			}
			qr, err = client.Query(ctx, query)
			if err != nil {
				queryErrs[query] = err
				results[i] = failedSQL(a, err.Error())
				continue
			}
			queryResults[query] = qr
		}
		results[i] = evaluateSQLAssert(a, qr, resolver)
	}
}

// evaluateSQLAssert compares one column of the first result row against
// the expected value.
func evaluateSQLAssert(a *config.SQLAssert, qr *db.QueryResult, resolver *template.Resolver) *SQLResult {
	res := &SQLResult{Name: a.String(), Expected: a.Value}

	if len(qr.Rows) == 0 {
		res.Message = "query returned no rows"
		return res
	}

	row := qr.Rows[0]
	actual, ok := row[a.Column]
	if !ok {
		for col, val := range row {
			if strings.EqualFold(col, a.Column) {
				actual, ok = val, true
				break
			}
		}
	}
	if !ok {
		res.Message = fmt.Sprintf("column %q not found in result", a.Column)
		return res
	}

	expected, err := resolver.Resolve(a.Value)
	if err != nil {
		res.Message = fmt.Sprintf("resolve value: %v", err)
		return res
	}
	res.Expected = expected
	res.Actual = fmt.Sprintf("%v", actual)

	if sqlValuesEqual(actual, expected) {
		res.Passed = true
		return res
	}
	res.Message = fmt.Sprintf("expected %v, got %v", expected, actual)
	return res
}

// sqlValuesEqual compares by string representation with a numeric
// fallback, so INTEGER 1 matches "1" and REAL 1.50 matches "1.5".
func sqlValuesEqual(actual interface{}, expected string) bool {
	if fmt.Sprintf("%v", actual) == expected {
		return true
	}
	actualNum, ok := toFloat64(actual)
	if !ok {
		return false
	}
	expectedNum, err := strconv.ParseFloat(expected, 64)
	return err == nil && actualNum == expectedNum
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func failedSQL(a *config.SQLAssert, message string) *SQLResult {
	return &SQLResult{Name: a.String(), Expected: a.Value, Message: message}
}

func sqlAllPassed(results []*SQLResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
