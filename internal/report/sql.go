package report

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// builder assembles one report query. Bind arguments are appended in the
// order their placeholders appear, which positional dialects rely on, so
// only the WHERE clause takes arguments.
type builder struct {
	d     Dialect
	table string
	req   Request
	args  []any
}

func newBuilder(d Dialect, table string, req Request) *builder {
	return &builder{d: d, table: table, req: req}
}

// c quotes a column name.
func (b *builder) c(name string) string { return b.d.Quote(name) }

func (b *builder) from() string { return "FROM " + b.d.Quote(b.table) }

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) limit() string {
	n := b.req.Limit
	if n == 0 {
		n = DefaultLimit
	}
	return fmt.Sprintf("LIMIT %d", n)
}

// where renders the request filter plus extra conditions, or "" when there
// are none.
func (b *builder) where(extra ...string) string {
	return joinWhere(append(b.filterConds(), parenthesize(extra)...))
}

// whereSpecies is where with the request's subject species added.
func (b *builder) whereSpecies(extra ...string) string {
	conds := b.filterConds()
	conds = append(conds, b.c(domain.ColCommonName)+" = "+b.bind(b.req.Species))
	return joinWhere(append(conds, parenthesize(extra)...))
}

func (b *builder) filterConds() []string {
	var conds []string
	f := b.req.Filter
	if len(f.LocationTypes) > 0 {
		conds = append(conds, b.in(domain.ColLocationType, toAny(f.LocationTypes)))
	}
	if len(f.Years) > 0 {
		conds = append(conds, b.in(domain.ColYear, toAny(f.Years)))
	}
	if len(f.Observers) > 0 {
		conds = append(conds, b.in(domain.ColObserver, toAny(f.Observers)))
	}
	if len(f.Species) > 0 {
		conds = append(conds, b.in(domain.ColCommonName, toAny(f.Species)))
	}
	return conds
}

func parenthesize(conds []string) []string {
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = "(" + c + ")"
	}
	return out
}

func joinWhere(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

func (b *builder) in(column string, values []any) string {
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = b.bind(v)
	}
	return fmt.Sprintf("%s IN (%s)", b.c(column), strings.Join(ph, ", "))
}

// yesNo labels a boolean column.
func (b *builder) yesNo(column string) string {
	return fmt.Sprintf("CASE WHEN %s THEN 'Yes' ELSE 'No' END", b.c(column))
}

// distanceOrder sorts distance buckets nearest first with anything else last.
func (b *builder) distanceOrder() string {
	var sb strings.Builder
	sb.WriteString("CASE ")
	sb.WriteString(b.c(domain.ColDistance))
	for _, bucket := range domain.DistanceBuckets {
		if bucket == domain.DistanceUnknown {
			continue
		}
		fmt.Fprintf(&sb, " WHEN %s THEN %d", quoteLiteral(string(bucket)), bucket.Rank())
	}
	fmt.Fprintf(&sb, " ELSE %d END", domain.DistanceUnknown.Rank())
	return sb.String()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalList(values ...string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteLiteral(v)
	}
	return strings.Join(quoted, ", ")
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
