package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalc(t *testing.T) {
	cases := []struct {
		name string
		seq  string
		want Stats
	}{
		{
			name: "empty",
			seq:  "",
			want: Stats{},
		},
		{
			name: "half gc",
			seq:  "ATGC",
			want: Stats{Length: 4, GCCount: 2, GCPercent: 50},
		},
		{
			name: "lower case",
			seq:  "atgcgg",
			want: Stats{Length: 6, GCCount: 4, GCPercent: float64(4) / 6 * 100},
		},
		{
			name: "with n",
			seq:  "ANNGCn",
			want: Stats{Length: 6, GCCount: 2, NCount: 3, GCPercent: float64(2) / 6 * 100, NPercent: 50},
		},
		{
			name: "no gc",
			seq:  "ATATAT",
			want: Stats{Length: 6},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calc(tc.seq)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Calc(%q) mismatch (-want +got):\n%s", tc.seq, diff)
			}
		})
	}
}
