package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSheetName(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
		unit  string
		site  string
	}{
		{"bare unit code", "ANTI", "ANTI", Unknown},
		{"unit code with spaces", "  GWMP  ", "GWMP", Unknown},
		{"unit code with digits", "NCA1", "NCA1", Unknown},
		{"forest prefixed plot", "Forest_Plot_A", "Plot_A", Unknown},
		{"grassland prefixed unit and site", "Grassland_MONO_Site2", "MONO", "Site2"},
		{"dash separated site", "GWMP - Turkey Run", "GWMP", "Turkey Run"},
		{"tight dash", "HAFE-Schoolhouse Ridge", "HAFE", "Schoolhouse Ridge"},
		{"space separated site", "CHOH Carderock", "CHOH", "Carderock"},
		{"lowercase prefix", "forest-ROCR", "ROCR", Unknown},
		{"prefix only", "Forest", Unknown, Unknown},
		{"prefix with separator only", "Grassland_", Unknown, Unknown},
		{"empty", "", Unknown, Unknown},
		{"whitespace", "   ", Unknown, Unknown},
		{"prefix glued to word is not a prefix", "ForestHill", "ForestHill", Unknown},
		{"mixed case word kept whole", "Sheet1", "Sheet1", Unknown},
		{"single letter code is not a code", "A_Block", "A_Block", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSheetName(tt.sheet)
			assert.Equal(t, SheetIdentity{UnitCode: tt.unit, SiteName: tt.site}, got)
		})
	}
}
