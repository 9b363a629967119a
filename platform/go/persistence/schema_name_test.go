package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSchemaName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"blank falls back", "  ", DefaultSchema, false},
		{"trimmed", " slugs_test ", "slugs_test", false},
		{"uppercase", "Slugs", "", true},
		{"leading digit", "1slugs", "", true},
		{"quote injection", `public"; drop table x; --`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSchemaName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
