package sqlexpr

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shibukawa/pgxlate/valtype"
	"github.com/shopspring/decimal"
)

// ParamStyle selects how parameters are rendered.
type ParamStyle int

const (
	// ParamNamed renders @name.
	ParamNamed ParamStyle = iota
	// ParamDollar renders $1, $2, ... in order of first appearance.
	ParamDollar
)

// Printer renders expressions as PostgreSQL.
type Printer struct {
	ParamStyle ParamStyle
}

// Print renders expr with named parameters.
func Print(expr Expr) string {
	sql, _ := Printer{}.Print(expr)
	return sql
}

// Print renders expr and returns the parameter names in placeholder order.
// With ParamNamed every name is reported once, in order of first appearance.
func (p Printer) Print(expr Expr) (string, []string) {
	st := &printState{style: p.ParamStyle, positions: make(map[string]int)}
	st.write(expr, precLowest)

	return st.sb.String(), st.params
}

// Operator precedence, loosest first, following the PostgreSQL table.
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precIs
	precComparison
	precIn
	precOther
	precAdditive
	precMultiplicative
	precAtTimeZone
	precUnaryMinus
	precAtom
)

func binaryPrecedence(op BinaryOp) int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		return precComparison
	case OpAdd, OpSubtract:
		return precAdditive
	case OpMultiply, OpDivide:
		return precMultiplicative
	case OpAtTimeZone:
		return precAtTimeZone
	default:
		return precOther
	}
}

func precedence(expr Expr) int {
	switch e := expr.(type) {
	case *Binary:
		return binaryPrecedence(e.Op)
	case *Unary:
		switch e.Op {
		case OpNot:
			return precNot
		case OpNegate:
			return precUnaryMinus
		default:
			return precIs
		}
	case *AnyOperator:
		return precComparison
	case *InList:
		return precIn
	case *Constant:
		if isNegativeNumber(e.Value) {
			return precUnaryMinus
		}

		return precAtom
	default:
		return precAtom
	}
}

type printState struct {
	sb        strings.Builder
	style     ParamStyle
	params    []string
	positions map[string]int
}

// write renders expr, parenthesized when it binds looser than minPrec.
func (st *printState) write(expr Expr, minPrec int) {
	if precedence(expr) < minPrec {
		st.sb.WriteByte('(')
		st.write(expr, precLowest)
		st.sb.WriteByte(')')

		return
	}

	switch e := expr.(type) {
	case *Column:
		if e.Table != "" {
			st.sb.WriteString(QuoteIdentifier(e.Table))
			st.sb.WriteByte('.')
		}

		st.sb.WriteString(QuoteIdentifier(e.Name))
	case *Constant:
		st.sb.WriteString(FormatValue(e.Value, e.Type(), storeTypeOf(e)))
	case *Parameter:
		st.writeParameter(e.Name)
	case *FunctionCall:
		st.sb.WriteString(e.Name)
		st.sb.WriteByte('(')
		st.writeList(e.Args)
		st.sb.WriteByte(')')
	case *Binary:
		prec := binaryPrecedence(e.Op)
		leftPrec, rightPrec := prec, prec+1

		// comparisons do not associate
		if e.Op.IsComparison() {
			leftPrec = prec + 1
		}

		st.write(e.Left, leftPrec)
		st.sb.WriteByte(' ')
		st.sb.WriteString(string(e.Op))
		st.sb.WriteByte(' ')
		st.write(e.Right, rightPrec)
	case *Unary:
		switch e.Op {
		case OpNot:
			st.sb.WriteString("NOT ")
			st.write(e.Operand, precNot)
		case OpNegate:
			st.sb.WriteByte('-')
			st.write(e.Operand, precAtom)
		default:
			st.write(e.Operand, precIs+1)
			st.sb.WriteByte(' ')
			st.sb.WriteString(string(e.Op))
		}
	case *Cast:
		st.sb.WriteString("CAST(")
		st.write(e.Operand, precLowest)
		st.sb.WriteString(" AS ")
		st.sb.WriteString(e.StoreType)
		st.sb.WriteByte(')')
	case *ArrayIndex:
		// subscripts apply only to a column or a parenthesized expression
		if _, ok := e.Array.(*Column); ok {
			st.write(e.Array, precAtom)
		} else {
			st.sb.WriteByte('(')
			st.write(e.Array, precLowest)
			st.sb.WriteByte(')')
		}

		st.sb.WriteByte('[')
		st.write(e.Index, precLowest)
		st.sb.WriteByte(']')
	case *ArrayConstructor:
		st.sb.WriteString("ARRAY[")
		st.writeList(e.Elements)
		st.sb.WriteByte(']')

		if len(e.Elements) == 0 {
			if store := storeTypeOf(e); store != "" {
				st.sb.WriteString("::")
				st.sb.WriteString(store)
			}
		}
	case *AnyOperator:
		st.write(e.Item, precComparison+1)
		st.sb.WriteString(" = ANY(")
		st.write(e.Array, precLowest)
		st.sb.WriteByte(')')
	case *InList:
		st.write(e.Item, precIn+1)

		if e.Negated {
			st.sb.WriteString(" NOT IN (")
		} else {
			st.sb.WriteString(" IN (")
		}

		st.writeList(e.Values)
		st.sb.WriteByte(')')
	default:
		panic(fmt.Sprintf("sqlexpr: unsupported expression type %T", expr))
	}
}

func (st *printState) writeList(exprs []Expr) {
	for i, expr := range exprs {
		if i > 0 {
			st.sb.WriteString(", ")
		}

		st.write(expr, precLowest)
	}
}

func (st *printState) writeParameter(name string) {
	pos, seen := st.positions[name]
	if !seen {
		st.params = append(st.params, name)
		pos = len(st.params)
		st.positions[name] = pos
	}

	switch st.style {
	case ParamDollar:
		st.sb.WriteString("$" + strconv.Itoa(pos))
	default:
		st.sb.WriteString("@" + name)
	}
}

func storeTypeOf(expr Expr) string {
	if m := expr.TypeMapping(); m != nil {
		return m.StoreType
	}

	return ""
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var reservedWords = map[string]struct{}{
	"all": {}, "analyse": {}, "analyze": {}, "and": {}, "any": {}, "array": {}, "as": {}, "asc": {},
	"asymmetric": {}, "both": {}, "case": {}, "cast": {}, "check": {}, "collate": {}, "column": {},
	"constraint": {}, "create": {}, "current_catalog": {}, "current_date": {}, "current_role": {},
	"current_time": {}, "current_timestamp": {}, "current_user": {}, "default": {}, "deferrable": {},
	"desc": {}, "distinct": {}, "do": {}, "else": {}, "end": {}, "except": {}, "false": {}, "fetch": {},
	"for": {}, "foreign": {}, "from": {}, "grant": {}, "group": {}, "having": {}, "in": {},
	"initially": {}, "intersect": {}, "into": {}, "lateral": {}, "leading": {}, "limit": {},
	"localtime": {}, "localtimestamp": {}, "not": {}, "null": {}, "offset": {}, "on": {}, "only": {},
	"or": {}, "order": {}, "placing": {}, "primary": {}, "references": {}, "returning": {},
	"select": {}, "session_user": {}, "some": {}, "symmetric": {}, "table": {}, "then": {}, "to": {},
	"trailing": {}, "true": {}, "union": {}, "unique": {}, "user": {}, "using": {}, "variadic": {},
	"when": {}, "where": {}, "window": {}, "with": {},
}

// QuoteIdentifier double-quotes name unless it is a plain identifier that is
// not a reserved word.
func QuoteIdentifier(name string) string {
	if plainIdentifier.MatchString(name) {
		if _, reserved := reservedWords[strings.ToLower(name)]; !reserved {
			return name
		}
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString renders s as a string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatValue renders a constant value as a PostgreSQL literal. t selects
// between timestamp flavors; storeType types empty arrays.
func FormatValue(value any, t valtype.Type, storeType string) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}

		return "FALSE"
	case string:
		return QuoteString(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case decimal.Decimal:
		return v.String()
	case uuid.UUID:
		return QuoteString(v.String()) + "::uuid"
	case time.Time:
		return formatTime(v, t)
	case time.Duration:
		return "INTERVAL '" + strconv.FormatInt(v.Microseconds(), 10) + " microseconds'"
	case []byte:
		return `'\x` + hex.EncodeToString(v) + "'::bytea"
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return formatArray(rv, t, storeType)
	}

	return QuoteString(fmt.Sprint(value))
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "'NaN'::double precision"
	case math.IsInf(v, 1):
		return "'Infinity'::double precision"
	case math.IsInf(v, -1):
		return "'-Infinity'::double precision"
	}

	return decimal.NewFromFloat(v).String()
}

func formatTime(v time.Time, t valtype.Type) string {
	switch t.Kind {
	case valtype.Date:
		return "DATE '" + v.Format("2006-01-02") + "'"
	case valtype.DateTimeOffset:
		return "TIMESTAMPTZ '" + v.Format("2006-01-02 15:04:05.999999Z07:00") + "'"
	default:
		return "TIMESTAMP '" + v.Format("2006-01-02 15:04:05.999999") + "'"
	}
}

func formatArray(rv reflect.Value, t valtype.Type, storeType string) string {
	if rv.Len() == 0 {
		if storeType != "" {
			return "ARRAY[]::" + storeType
		}

		return "'{}'"
	}

	elemType := t.ElementType()
	elemStore, _ := strings.CutSuffix(storeType, "[]")

	items := make([]string, rv.Len())
	for i := range items {
		items[i] = FormatValue(rv.Index(i).Interface(), elemType, elemStore)
	}

	return "ARRAY[" + strings.Join(items, ", ") + "]"
}

func isNegativeNumber(value any) bool {
	switch v := value.(type) {
	case int:
		return v < 0
	case int8:
		return v < 0
	case int16:
		return v < 0
	case int32:
		return v < 0
	case int64:
		return v < 0
	case float32:
		return v < 0
	case float64:
		return v < 0
	case decimal.Decimal:
		return v.IsNegative()
	default:
		return false
	}
}
