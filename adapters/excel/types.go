package excel

// Sheet is one worksheet of plain cell values. Nil cells are left blank.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
	Widths  map[int]float64
}
