package manifest

import "sort"

// Manifest is an ordered collection of records sharing one hash algorithm.
// Paths are unique; putting a record for an existing path replaces it in
// place. Records with equal content at different paths are all kept.
type Manifest struct {
	// Algorithm is the hash algorithm of every record. Empty means not yet
	// known (an empty manifest without header).
	Algorithm string

	records []Record
	index   map[string]int
}

// New returns an empty manifest for algorithm.
func New(algorithm string) *Manifest {
	return &Manifest{
		Algorithm: algorithm,
		index:     make(map[string]int),
	}
}

// Put adds r, replacing any record with the same path (last write wins).
// A record hashed with a different algorithm is rejected.
func (m *Manifest) Put(r Record) error {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if r.Algorithm == "" {
		r.Algorithm = m.Algorithm
	}
	if m.Algorithm == "" {
		m.Algorithm = r.Algorithm
	}
	if r.Algorithm != m.Algorithm {
		return &AlgorithmMismatchError{Existing: m.Algorithm, Requested: r.Algorithm}
	}

	p := r.Path()
	if i, ok := m.index[p]; ok {
		m.records[i] = r
		return nil
	}
	m.index[p] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

// Get returns the record stored at path.
func (m *Manifest) Get(path string) (Record, bool) {
	i, ok := m.index[path]
	if !ok {
		return Record{}, false
	}
	return m.records[i], true
}

// Has reports whether a record exists at path.
func (m *Manifest) Has(path string) bool {
	_, ok := m.index[path]
	return ok
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	return len(m.records)
}

// Records returns a copy of the records in manifest order.
func (m *Manifest) Records() []Record {
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Paths returns every record path in manifest order.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.Path()
	}
	return out
}

// SortByPath orders records lexicographically by relative path.
func (m *Manifest) SortByPath() {
	sort.SliceStable(m.records, func(i, j int) bool {
		return m.records[i].Path() < m.records[j].Path()
	})
	m.reindex()
}

// Clone returns an independent copy.
func (m *Manifest) Clone() *Manifest {
	c := New(m.Algorithm)
	c.records = m.Records()
	c.reindex()
	return c
}

func (m *Manifest) reindex() {
	m.index = make(map[string]int, len(m.records))
	for i, r := range m.records {
		m.index[r.Path()] = i
	}
}
