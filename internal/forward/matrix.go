package forward

// squareMatrix is a dense row-major square matrix of float64. Row i holds
// the ancestry proportions of child deme i over all parental demes.
type squareMatrix struct {
	data  []float64
	nrows int
}

func newSquareMatrix(nrows int) *squareMatrix {
	return &squareMatrix{
		data:  make([]float64, nrows*nrows),
		nrows: nrows,
	}
}

func (m *squareMatrix) fill(value float64) {
	for i := range m.data {
		m.data[i] = value
	}
}

func (m *squareMatrix) row(i int) []float64 {
	start := i * m.nrows
	return m.data[start : start+m.nrows]
}
