package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"PT3M25S", 205, false},
		{"PT1H2M3S", 3723, false},
		{"PT45S", 45, false},
		{"PT2M", 120, false},
		{"PT1H", 3600, false},
		{"PT0S", 0, false},
		{"PT2M30S", 150, false},
		{"", 0, true},
		{"3M25S", 0, true},
		{"PT", 0, false},
		{"PTXS", 0, true},
		{"PT5", 0, true},
		{"P1DT2H", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{205, "3:25"},
		{3723, "1:02:03"},
		{45, "0:45"},
		{3600, "1:00:00"},
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{3599, "59:59"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestBatchIDs(t *testing.T) {
	t.Run("splits into even batches", func(t *testing.T) {
		ids := make([]string, 120)
		batches := BatchIDs(ids, 50)
		require.Len(t, batches, 3)
		assert.Len(t, batches[0], 50)
		assert.Len(t, batches[1], 50)
		assert.Len(t, batches[2], 20)
	})

	t.Run("single short batch", func(t *testing.T) {
		batches := BatchIDs([]string{"a", "b"}, 50)
		require.Len(t, batches, 1)
		assert.Equal(t, []string{"a", "b"}, batches[0])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, BatchIDs(nil, 50))
	})

	t.Run("invalid size", func(t *testing.T) {
		assert.Nil(t, BatchIDs([]string{"a"}, 0))
	})
}
