package domain

// Token is a positioned word extracted from a PDF page. Coordinates follow
// the layout convention: X grows rightward, Top grows downward from the top
// of the page. Tokens are immutable and scoped to a single page.
type Token struct {
	Text   string
	X0     float64
	X1     float64
	Top    float64
	Bottom float64
}

// Row is a group of tokens sharing an approximate vertical position,
// ordered left to right. Rows are rebuilt on every parse.
type Row []Token

// OrderLine is one extracted purchase-order line. Quantity, UnitPrice and
// DiscountPct are canonical decimal-point strings (e.g. "2.00"), never
// floats, so downstream consumers see exactly what the document said.
type OrderLine struct {
	Code        string
	Description string
	Quantity    string
	UnitPrice   string
	DiscountPct string
}

// DocumentMeta is the document-level metadata extracted once per delivery
// note and repeated on every output row.
type DocumentMeta struct {
	SupplierName string
	SupplierRef  string
	Warehouse    string
}

// ImportDoc is the single result type returned by every vendor adapter:
// the matched order lines, the document metadata and the output header
// the record builder must honor.
type ImportDoc struct {
	Lines  []OrderLine
	Meta   DocumentMeta
	Header []string
}
