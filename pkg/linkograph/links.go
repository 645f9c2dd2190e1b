package linkograph

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// LinkMatrix holds one similarity score for every pair (i, j) with j < i,
// read as "move i links back to move j". Scores are packed row by row into a
// single slice; there are no self links and no forward references.
//
// A new matrix holds zeros. The zero value is an empty matrix.
type LinkMatrix struct {
	n      int
	scores []float64
}

// NewLinkMatrix returns a matrix for n moves.
func NewLinkMatrix(n int) *LinkMatrix {
	if n < 0 {
		n = 0
	}
	return &LinkMatrix{n: n, scores: make([]float64, pairCount(n))}
}

func pairCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

func (m *LinkMatrix) index(i, j int) int {
	return i*(i-1)/2 + j
}

// Size returns the number of moves the matrix covers.
func (m *LinkMatrix) Size() int {
	if m == nil {
		return 0
	}
	return m.n
}

// Len returns the number of stored pairs, n(n-1)/2.
func (m *LinkMatrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.scores)
}

func (m *LinkMatrix) checkPair(i, j int) error {
	if i < 0 || i >= m.Size() || j < 0 || j >= m.Size() {
		return lerrors.InputErrorf(lerrors.ErrLinkIndexOutOfRange,
			"link (%d, %d) is outside a matrix of %d moves", i, j, m.Size()).
			WithContextf("i", i).
			WithContextf("j", j)
	}
	if j >= i {
		return lerrors.InputErrorf(lerrors.ErrLinksInvalid,
			"link (%d, %d) is not a backlink: the earlier move must come second", i, j).
			WithContextf("i", i).
			WithContextf("j", j)
	}
	return nil
}

// At returns the score of move i linking back to move j.
func (m *LinkMatrix) At(i, j int) (float64, error) {
	if err := m.checkPair(i, j); err != nil {
		return 0, err
	}
	return m.scores[m.index(i, j)], nil
}

// Set stores the score of move i linking back to move j.
func (m *LinkMatrix) Set(i, j int, score float64) error {
	if err := m.checkPair(i, j); err != nil {
		return err
	}
	score, err := checkScore(i, j, score)
	if err != nil {
		return err
	}
	m.scores[m.index(i, j)] = score
	return nil
}

// scoreTolerance absorbs float32 rounding in externally computed cosines,
// which can land just past ±1 for identical texts.
const scoreTolerance = 1e-6

// checkScore returns score clamped into [-1, 1]. Scores further than
// scoreTolerance outside the range, and NaN, are errors.
func checkScore(i, j int, score float64) (float64, error) {
	if math.IsNaN(score) || math.Abs(score) > 1+scoreTolerance {
		return 0, lerrors.NumericErrorf(lerrors.ErrScoreOutOfRange,
			"link (%d, %d) has score %g outside [-1, 1]", i, j, score).
			WithContextf("i", i).
			WithContextf("j", j)
	}
	return math.Max(-1, math.Min(1, score)), nil
}

// Row returns the backlink scores of move i, ordered by earlier move.
// It returns nil for an index outside the matrix.
func (m *LinkMatrix) Row(i int) []float64 {
	if i < 0 || i >= m.Size() {
		return nil
	}
	start := m.index(i, 0)
	out := make([]float64, i)
	copy(out, m.scores[start:start+i])
	return out
}

// Column returns the forelink scores of move j: the scores of every later
// move linking back to it, ordered by later move.
func (m *LinkMatrix) Column(j int) []float64 {
	if j < 0 || j >= m.Size() {
		return nil
	}
	out := make([]float64, 0, m.n-j-1)
	for k := j + 1; k < m.n; k++ {
		out = append(out, m.scores[m.index(k, j)])
	}
	return out
}

// Horizon returns the scores of every pair (i, i+h), ordered by i.
// It returns nil unless 1 <= h < Size().
func (m *LinkMatrix) Horizon(h int) []float64 {
	if h < 1 || h >= m.Size() {
		return nil
	}
	out := make([]float64, 0, m.n-h)
	for i := 0; i+h < m.n; i++ {
		out = append(out, m.scores[m.index(i+h, i)])
	}
	return out
}

// All returns every stored score in row order.
func (m *LinkMatrix) All() []float64 {
	if m == nil {
		return nil
	}
	out := make([]float64, len(m.scores))
	copy(out, m.scores)
	return out
}

// Clone returns an independent copy.
func (m *LinkMatrix) Clone() *LinkMatrix {
	if m == nil {
		return nil
	}
	return &LinkMatrix{n: m.n, scores: m.All()}
}

// ToMap returns the matrix as nested maps keyed by move index. Every row is
// present, including the empty row of move 0, so the map also records the
// move count.
func (m *LinkMatrix) ToMap() map[int]map[int]float64 {
	out := make(map[int]map[int]float64, m.Size())
	for i := 0; i < m.Size(); i++ {
		row := make(map[int]float64, i)
		for j := 0; j < i; j++ {
			row[j] = m.scores[m.index(i, j)]
		}
		out[i] = row
	}
	return out
}

// LinkMatrixFromMap imports a pre-computed matrix for n moves. Every pair
// (i, j) with j < i must be present. Rows may be missing only where they
// would be empty.
func LinkMatrixFromMap(n int, links map[int]map[int]float64) (*LinkMatrix, error) {
	m := NewLinkMatrix(n)

	rows := make([]int, 0, len(links))
	for i := range links {
		rows = append(rows, i)
	}
	sort.Ints(rows)

	for _, i := range rows {
		if i < 0 || i >= n {
			return nil, lerrors.InputErrorf(lerrors.ErrLinksInvalid,
				"link row %d is outside a graph of %d moves", i, n).
				WithContextf("row", i)
		}
		cols := make([]int, 0, len(links[i]))
		for j := range links[i] {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			if j < 0 || j >= i {
				return nil, lerrors.InputErrorf(lerrors.ErrLinksInvalid,
					"link (%d, %d) is a self or forward reference", i, j).
					WithContextf("i", i).
					WithContextf("j", j)
			}
			score, err := checkScore(i, j, links[i][j])
			if err != nil {
				return nil, err
			}
			m.scores[m.index(i, j)] = score
		}
	}

	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			if _, ok := links[i][j]; !ok {
				return nil, lerrors.InputErrorf(lerrors.ErrLinksIncomplete,
					"link (%d, %d) is missing", i, j).
					WithContextf("i", i).
					WithContextf("j", j).
					WithSuggestion("Recompute links for the whole episode; partial matrices are not supported")
			}
		}
	}
	return m, nil
}

// MarshalJSON writes the matrix with stringified index keys:
// {"0": {}, "1": {"0": 0.42}, ...}.
func (m *LinkMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]float64, m.Size())
	for i := 0; i < m.Size(); i++ {
		row := make(map[string]float64, i)
		for j := 0; j < i; j++ {
			row[strconv.Itoa(j)] = m.scores[m.index(i, j)]
		}
		out[strconv.Itoa(i)] = row
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the stringified-key form written by MarshalJSON. The
// move count is taken as one past the largest index that appears.
func (m *LinkMatrix) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return lerrors.Wrap(err, lerrors.ErrLinksInvalid, lerrors.CategoryInput, "failed to decode link matrix")
	}

	links := make(map[int]map[int]float64, len(raw))
	n := 0
	for key, rawRow := range raw {
		i, err := strconv.Atoi(key)
		if err != nil {
			return lerrors.InputErrorf(lerrors.ErrLinksInvalid, "link row key %q is not an integer", key)
		}
		row := make(map[int]float64, len(rawRow))
		for colKey, score := range rawRow {
			j, err := strconv.Atoi(colKey)
			if err != nil {
				return lerrors.InputErrorf(lerrors.ErrLinksInvalid,
					"link column key %q in row %d is not an integer", colKey, i)
			}
			row[j] = score
			n = max(n, j+1)
		}
		links[i] = row
		n = max(n, i+1)
	}

	parsed, err := LinkMatrixFromMap(n, links)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}
