package filter_test

import (
	"testing"

	"conduit/internal/filter"
	"conduit/internal/validator"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilters(t *testing.T) {
	tests := []struct {
		name   string
		limit  int64
		offset int64
		valid  bool
	}{
		{"defaults", 20, 0, true},
		{"maximum limit", 100, 0, true},
		{"limit too large", 101, 0, false},
		{"zero limit", 0, 0, false},
		{"negative limit", -1, 0, false},
		{"negative offset", 20, -1, false},
		{"large offset", 20, 10_000_000, true},
		{"offset too large", 20, 10_000_001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			filter.ValidateFilters(filter.NewFilter(tt.limit, tt.offset), v)
			assert.Equal(t, tt.valid, v.IsValid(), "errors: %v", v.Errors)
		})
	}
}
