package stats

// Package stats computes simple composition statistics over a nucleotide
// sequence string.

// Stats summarizes the base composition of one sequence.
type Stats struct {
	Length    int     `json:"length"`
	GCCount   int     `json:"gc_count"`
	NCount    int     `json:"n_count"`
	GCPercent float64 `json:"gc_percent"`
	NPercent  float64 `json:"n_percent"`
}

// Calc counts G/C and N bases in sequence, case insensitively, and derives
// their percentages. An empty sequence yields zero percentages.
func Calc(sequence string) Stats {
	st := Stats{Length: len(sequence)}
	for i := 0; i < len(sequence); i++ {
		switch sequence[i] {
		case 'G', 'C', 'g', 'c':
			st.GCCount++
		case 'N', 'n':
			st.NCount++
		}
	}
	if st.Length > 0 {
		st.GCPercent = float64(st.GCCount) / float64(st.Length) * 100
		st.NPercent = float64(st.NCount) / float64(st.Length) * 100
	}
	return st
}
