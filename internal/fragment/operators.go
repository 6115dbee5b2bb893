package fragment

// Comparison operators.
const (
	OpEq  = "="
	OpNe  = "<>"
	OpLt  = "<"
	OpLte = "<="
	OpGt  = ">"
	OpGte = ">="
)

// Cmp renders a comparison against the left-hand side written in the script.
type Cmp struct {
	Op    string
	Right Expr
}

func (c Cmp) SQL() string { return c.Op + " " + c.Right.SQL() }

// In represents a list membership test (IN / NOT IN).
type In struct {
	Values []Expr
	Not    bool
}

func (i In) SQL() string {
	op := "IN "
	if i.Not {
		op = "NOT IN "
	}
	return op + Paren{Expr: List(i.Values)}.SQL()
}

// Between represents a range test (BETWEEN / NOT BETWEEN).
type Between struct {
	Low  Expr
	High Expr
	Not  bool
}

func (b Between) SQL() string {
	op := "BETWEEN "
	if b.Not {
		op = "NOT BETWEEN "
	}
	return op + b.Low.SQL() + " AND " + b.High.SQL()
}

// IsNull represents a null test (IS NULL / IS NOT NULL).
type IsNull struct {
	Not bool
}

func (n IsNull) SQL() string {
	if n.Not {
		return "IS NOT NULL"
	}
	return "IS NULL"
}

// Like represents a pattern match (LIKE / NOT LIKE).
type Like struct {
	Pattern Expr
	Not     bool
}

func (l Like) SQL() string {
	if l.Not {
		return "NOT LIKE " + l.Pattern.SQL()
	}
	return "LIKE " + l.Pattern.SQL()
}
