package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRange(t *testing.T) {
	tests := []struct {
		name             string
		start, stop, n   int64
		wantFrom, wantTo int64
		wantOK           bool
	}{
		{"window inside list", 0, 20, 25, 0, 20, true},
		{"window larger than list", 0, 20, 3, 0, 2, true},
		{"whole list", 0, -1, 4, 0, 3, true},
		{"negative start", -2, -1, 4, 2, 3, true},
		{"empty list", 0, 20, 0, 0, 0, false},
		{"start past end", 5, 10, 3, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := NormalizeRange(tt.start, tt.stop, tt.n)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantFrom, from)
				assert.Equal(t, tt.wantTo, to)
			}
		})
	}
}
