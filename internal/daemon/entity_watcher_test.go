package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffNames(t *testing.T) {
	tests := []struct {
		name        string
		before      []string
		after       []string
		wantAdded   []string
		wantRemoved []string
	}{
		{"no change", []string{"a", "b"}, []string{"a", "b"}, nil, nil},
		{"added", []string{"a"}, []string{"a", "b"}, []string{"b"}, nil},
		{"removed", []string{"a", "b"}, []string{"b"}, nil, []string{"a"}},
		{"both", []string{"a", "c"}, []string{"b", "c"}, []string{"b"}, []string{"a"}},
		{"from empty", nil, []string{"x"}, []string{"x"}, nil},
		{"to empty", []string{"x"}, nil, nil, []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := diffNames(tt.before, tt.after)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantRemoved, removed)
		})
	}
}
