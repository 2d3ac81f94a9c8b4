package workflow

import "testing"

func TestAllocateOrder(t *testing.T) {
	cases := []struct {
		name      string
		existing  []int
		requested int
		want      int
	}{
		{"empty bucket appends at 1", nil, 0, 1},
		{"appends after max", []int{1, 2, 3}, 0, 4},
		{"gaps are not compacted", []int{2, 7}, 0, 8},
		{"negative requested appends", []int{5}, -1, 6},
		{"explicit position used verbatim", []int{1, 2, 3}, 2, 2},
		{"explicit position beyond max", []int{1}, 99, 99},
		{"unsorted input", []int{9, 1, 4}, 0, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllocateOrder(tc.existing, tc.requested); got != tc.want {
				t.Errorf("AllocateOrder(%v, %d) = %d, want %d", tc.existing, tc.requested, got, tc.want)
			}
		})
	}
}
