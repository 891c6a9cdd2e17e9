package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name     string
		in       PageRequest
		wantPage int
		wantSize int
	}{
		{"empty", PageRequest{}, 1, DefaultPageSize},
		{"kept", PageRequest{Page: 3, PageSize: 5}, 3, 5},
		{"capped", PageRequest{Page: 1, PageSize: 500}, 1, MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Defaults()
			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("expected %d/%d, got %d/%d", tt.wantPage, tt.wantSize, req.Page, req.PageSize)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	t.Run("middle_page", func(t *testing.T) {
		page := Slice(items, PageRequest{Page: 2, PageSize: 2})
		if len(page.Data) != 2 || page.Data[0] != 3 || page.TotalPages != 3 || page.TotalItems != 5 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("past_the_end", func(t *testing.T) {
		page := Slice(items, PageRequest{Page: 9, PageSize: 2})
		if page.Data == nil || len(page.Data) != 0 {
			t.Errorf("expected an empty non-nil page, got %+v", page.Data)
		}
	})
}
