package pagination

import "testing"

func TestParamsNormalizeAndOffset(t *testing.T) {
	cases := []struct {
		in     Params
		page   int
		limit  int
		offset int
	}{
		{Params{}, 1, DefaultLimit, 0},
		{Params{Page: 3, Limit: 10}, 3, 10, 20},
		{Params{Page: -2, Limit: 5000}, 1, MaxLimit, 0},
	}
	for _, tc := range cases {
		got := tc.in.Normalize()
		if got.Page != tc.page || got.Limit != tc.limit {
			t.Fatalf("normalize(%+v) = %+v", tc.in, got)
		}
		if off := tc.in.Offset(); off != tc.offset {
			t.Fatalf("offset(%+v) = %d, want %d", tc.in, off, tc.offset)
		}
	}
}

func TestPages(t *testing.T) {
	if got := Pages(0, 50); got != 0 {
		t.Fatalf("expected 0 pages for empty set, got %d", got)
	}
	if got := Pages(50, 50); got != 1 {
		t.Fatalf("expected 1 page, got %d", got)
	}
	if got := Pages(51, 50); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if got := Pages(10, 0); got != 1 {
		t.Fatalf("zero limit should use default, got %d", got)
	}
}
