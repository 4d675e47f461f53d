// Package scalarfn holds the static table mapping ODBC scalar-function
// names (component C) to PostgreSQL SQL fragments. An odbc name may begin
// with "%N" to force an arity of N arguments, or be of the form
// "NAME(FIRSTARG" to demand the first user argument textually equal
// FIRSTARG (used for TIMESTAMPADD(SQL_TSI_DAY,...) dispatch). A template
// uses $1..$N to refer to arguments and $* to splice the whole
// comma-separated argument list unchanged.
package scalarfn

import "strings"

// Entry is one row of the scalar-function table.
type Entry struct {
	ODBCName string
	Template string
}

// table lists the ODBC→PostgreSQL scalar function mappings this driver
// understands. It is not exhaustive of the ODBC scalar function catalogue;
// it covers the commonly used string, numeric, and date/time functions that
// appear in generated SQL.
var table = []Entry{
	{"CONCAT", "($1 || $2)"},
	{"LCASE", "lower($1)"},
	{"UCASE", "upper($1)"},
	{"LENGTH", "char_length($1)"},
	{"LOCATE", "position($2 in $1)"},
	{"SUBSTRING", "substr($*)"},
	{"LTRIM", "ltrim($1)"},
	{"RTRIM", "rtrim($1)"},
	{"REPEAT", "repeat($1, $2)"},
	{"REPLACE", "replace($1, $2, $3)"},
	{"LEFT", "left($1, $2)"},
	{"RIGHT", "right($1, $2)"},
	{"SPACE", "repeat(' ', $1)"},
	{"ASCII", "ascii($1)"},
	{"CHAR", "chr($1)"},
	{"%1DIFFERENCE", "difference($1, $1)"},
	{"ABS", "abs($1)"},
	{"MOD", "mod($1, $2)"},
	{"POWER", "power($1, $2)"},
	{"SIGN", "sign($1)"},
	{"SQRT", "sqrt($1)"},
	{"TRUNCATE", "trunc($1, $2)"},
	{"%0CURDATE", "current_date"},
	{"%0CURTIME", "current_time"},
	{"%0NOW", "now()"},
	{"DAYOFMONTH", "extract(day from $1)"},
	{"DAYOFWEEK", "(extract(dow from $1) + 1)"},
	{"DAYOFYEAR", "extract(doy from $1)"},
	{"MONTH", "extract(month from $1)"},
	{"QUARTER", "extract(quarter from $1)"},
	{"WEEK", "extract(week from $1)"},
	{"YEAR", "extract(year from $1)"},
	{"HOUR", "extract(hour from $1)"},
	{"MINUTE", "extract(minute from $1)"},
	{"SECOND", "extract(second from $1)"},
	{"TIMESTAMPADD(SQL_TSI_DAY", "($2 + make_interval(days => $3))"},
	{"TIMESTAMPADD(SQL_TSI_MONTH", "($2 + make_interval(months => $3))"},
	{"TIMESTAMPADD(SQL_TSI_YEAR", "($2 + make_interval(years => $3))"},
	{"TIMESTAMPDIFF(SQL_TSI_DAY", "(extract(day from ($3 - $2)))"},
	{"DATABASE", "current_database()"},
	{"USER", "current_user"},
	{"IFNULL", "coalesce($1, $2)"},
}

// index is built once at package init from table, keyed by the
// upper-cased, arity/dispatch-stripped function name.
var index = map[string][]Entry{}

func init() {
	for _, e := range table {
		key := dispatchKey(e.ODBCName)
		index[key] = append(index[key], e)
	}
}

// dispatchKey strips a leading "%N" arity prefix and a trailing "(FIRSTARG"
// literal-dispatch suffix, returning the bare upper-cased function name
// used to look the entry up.
func dispatchKey(odbcName string) string {
	name := odbcName
	if len(name) > 0 && name[0] == '%' {
		i := 1
		for i < len(name) && name[i] >= '0' && name[i] <= '9' {
			i++
		}
		name = name[i:]
	}
	if idx := strings.IndexByte(name, '('); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToUpper(name)
}

// Arity reports the forced arity encoded in a "%N" prefix, or -1 if the
// entry matches any arity.
func (e Entry) Arity() int {
	if len(e.ODBCName) == 0 || e.ODBCName[0] != '%' {
		return -1
	}
	i := 1
	n := 0
	for i < len(e.ODBCName) && e.ODBCName[i] >= '0' && e.ODBCName[i] <= '9' {
		n = n*10 + int(e.ODBCName[i]-'0')
		i++
	}
	return n
}

// FirstArg reports the literal first-argument value an entry demands (from
// "NAME(FIRSTARG" form), or "" if the entry does not discriminate on it.
func (e Entry) FirstArg() string {
	idx := strings.IndexByte(e.ODBCName, '(')
	if idx < 0 {
		return ""
	}
	return e.ODBCName[idx+1:]
}

// Lookup finds the table entry for name given the parsed argument texts
// (used for arity and first-argument discrimination). It returns ok=false
// when no entry matches, in which case the caller passes the call through
// verbatim.
func Lookup(name string, args []string) (Entry, bool) {
	candidates := index[strings.ToUpper(name)]
	for _, e := range candidates {
		if arity := e.Arity(); arity >= 0 && arity != len(args) {
			continue
		}
		if first := e.FirstArg(); first != "" {
			if len(args) == 0 || !strings.EqualFold(strings.TrimSpace(args[0]), first) {
				continue
			}
		}
		return e, true
	}
	return Entry{}, false
}

// Expand substitutes $1..$N and $* in template with the given argument
// texts, joined with ", " for $*.
func Expand(template string, args []string) string {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		if template[i] != '$' || i+1 >= len(template) {
			b.WriteByte(template[i])
			continue
		}

		if template[i+1] == '*' {
			b.WriteString(strings.Join(args, ", "))
			i++
			continue
		}

		j := i + 1
		n := 0
		matched := false
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			n = n*10 + int(template[j]-'0')
			j++
			matched = true
		}
		if !matched {
			b.WriteByte(template[i])
			continue
		}

		if n >= 1 && n <= len(args) {
			b.WriteString(args[n-1])
		}
		i = j - 1
	}

	return b.String()
}

// ConvertTypeOID maps an ODBC "SQL_XXX" type token used inside a
// {fn CONVERT(expr, SQL_type)} escape to the PostgreSQL cast type name.
func ConvertTypeOID(sqlType string) (string, bool) {
	switch strings.ToUpper(sqlType) {
	case "SQL_INTEGER":
		return "integer", true
	case "SQL_SMALLINT":
		return "smallint", true
	case "SQL_BIGINT":
		return "bigint", true
	case "SQL_REAL":
		return "real", true
	case "SQL_FLOAT", "SQL_DOUBLE":
		return "double precision", true
	case "SQL_DECIMAL", "SQL_NUMERIC":
		return "numeric", true
	case "SQL_CHAR", "SQL_VARCHAR", "SQL_LONGVARCHAR":
		return "text", true
	case "SQL_DATE":
		return "date", true
	case "SQL_TIME":
		return "time", true
	case "SQL_TIMESTAMP":
		return "timestamp", true
	case "SQL_BINARY", "SQL_VARBINARY", "SQL_LONGVARBINARY":
		return "bytea", true
	case "SQL_BIT":
		return "boolean", true
	default:
		return "", false
	}
}
