package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "weighted", Source: SourceRank},
			want:     Label{Value: "weighted", Source: SourceRank},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "weighted", Source: SourceRank},
			incoming: Label{},
			want:     Label{Value: "weighted", Source: SourceRank},
		},
		{
			name:     "same source not duplicated",
			existing: Label{Value: "trained", Source: SourceRank},
			incoming: Label{Value: "weighted", Source: SourceRank},
			want:     Label{Value: "trained|weighted", Source: SourceRank},
		},
		{
			name:     "different sources accumulate",
			existing: Label{Value: "a", Source: SourceFilter},
			incoming: Label{Value: "b", Source: SourceRank},
			want:     Label{Value: "a|b", Source: "filter,rank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}
