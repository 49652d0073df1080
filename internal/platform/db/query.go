package db

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/platform/records"
)

// SelectQuery accumulates a parameterized SELECT against a single table.
// Identifiers must be validated before they reach it.
type SelectQuery struct {
	table   string
	cols    []string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewSelectQuery creates a SelectQuery over table. No columns selects "*".
func NewSelectQuery(table string, cols ...string) *SelectQuery {
	quoted := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, QuoteIdent(c))
	}
	return &SelectQuery{table: QuoteIdent(table), cols: quoted, idx: 1}
}

// QuoteIdent quotes a table or column name for PostgreSQL.
func QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Arg registers a bind argument and returns its placeholder.
func (q *SelectQuery) Arg(v interface{}) string {
	q.args = append(q.args, bindValue(v))
	ph := fmt.Sprintf("$%d", q.idx)
	q.idx++
	return ph
}

// Column adds a computed select expression.
func (q *SelectQuery) Column(expr string) {
	if len(q.cols) == 0 {
		q.cols = append(q.cols, "*")
	}
	q.cols = append(q.cols, expr)
}

// Add appends a WHERE fragment (without leading "AND").
func (q *SelectQuery) Add(clause string) {
	q.where += " AND " + clause
}

// AddCondition appends a comparison on a column.
func (q *SelectQuery) AddCondition(c records.Condition) error {
	var op string
	switch c.Op {
	case records.OpEq:
		op = "="
	case records.OpGt:
		op = ">"
	case records.OpGte:
		op = ">="
	case records.OpLte:
		op = "<="
	default:
		return fmt.Errorf("unsupported operator %q", c.Op)
	}
	q.Add(fmt.Sprintf("%s %s %s", QuoteIdent(c.Field), op, q.Arg(c.Value)))
	return nil
}

// OrderBy sets the ORDER BY clause (without the keyword).
func (q *SelectQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// SQL renders the statement. A positive limit adds a bound LIMIT.
func (q *SelectQuery) SQL(limit int) (string, []interface{}) {
	cols := "*"
	if len(q.cols) > 0 {
		cols = strings.Join(q.cols, ", ")
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	if limit > 0 {
		sql += " LIMIT " + q.Arg(limit)
	}
	return sql, q.args
}

// BuildFindMany renders a records.Query.
func BuildFindMany(rq records.Query) (string, []interface{}, error) {
	if err := rq.Validate(); err != nil {
		return "", nil, err
	}
	q := NewSelectQuery(rq.Collection, rq.Select...)
	for _, c := range rq.Where {
		if err := q.AddCondition(c); err != nil {
			return "", nil, err
		}
	}
	if rq.OrderBy != "" {
		dir := "ASC"
		if rq.Descending {
			dir = "DESC"
		}
		q.OrderBy(QuoteIdent(rq.OrderBy) + " " + dir)
	}
	sql, args := q.SQL(rq.Take)
	return sql, args, nil
}

// BuildFindRanked renders a tiered search: exact matches rank 1, prefix
// matches 2 and trigram-similar matches 3. Rows carry search_priority and
// search_score columns.
func BuildFindRanked(rq records.RankedQuery) (string, []interface{}, error) {
	if err := rq.Validate(); err != nil {
		return "", nil, err
	}
	if rq.Empty() {
		return "", nil, fmt.Errorf("ranked query on %s has no fields", rq.Collection)
	}

	q := NewSelectQuery(rq.Collection)
	term := q.Arg(rq.Term)

	var tiers []string
	var matchAny []string
	addTier := func(rank int, conds []string) {
		if len(conds) == 0 {
			return
		}
		expr := "(" + strings.Join(conds, " OR ") + ")"
		tiers = append(tiers, fmt.Sprintf("WHEN %s THEN %d", expr, rank))
		matchAny = append(matchAny, expr)
	}

	var exact []string
	for _, f := range rq.Exact {
		exact = append(exact, fmt.Sprintf("%s = %s", lowered(f), term))
	}
	addTier(1, exact)

	if len(rq.Prefix) > 0 {
		pattern := q.Arg(EscapeLike(rq.Term) + "%")
		var prefix []string
		for _, f := range rq.Prefix {
			prefix = append(prefix, fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, lowered(f), pattern))
		}
		addTier(2, prefix)
	}

	var similar, scores []string
	for _, f := range rq.Similar {
		similar = append(similar, fmt.Sprintf("%s %% %s", lowered(f), term))
		scores = append(scores, fmt.Sprintf("similarity(%s, %s)", lowered(f), term))
	}
	addTier(3, similar)

	q.Column("CASE " + strings.Join(tiers, " ") + " END AS search_priority")
	if len(scores) > 0 {
		q.Column("COALESCE(GREATEST(" + strings.Join(scores, ", ") + "), 0)::float8 AS search_score")
	} else {
		q.Column("0::float8 AS search_score")
	}
	q.Add("(" + strings.Join(matchAny, " OR ") + ")")

	sortField := rq.SortField
	if sortField == "" {
		sortField = "created_at"
	}
	q.OrderBy("search_priority ASC, search_score DESC, " + QuoteIdent(sortField) + " DESC NULLS LAST")

	sql, args := q.SQL(rq.Limit)
	return sql, args, nil
}

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func lowered(field string) string {
	return "lower(" + QuoteIdent(field) + "::text)"
}

// bindValue converts decoded JSON numbers into types pgx can encode.
func bindValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
