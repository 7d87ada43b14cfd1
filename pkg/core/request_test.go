package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "ASC", want: Ascending},
		{in: "asc", want: Ascending},
		{in: " Desc ", want: Descending},
		{in: "descending", want: Descending},
		{in: "", wantErr: true},
		{in: "sideways", wantErr: true},
		{in: "ASC; DROP TABLE x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidDirection))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLabels_WithDefaults(t *testing.T) {
	l := Labels{Column: "Field", ChangedAt: "When"}.WithDefaults()

	assert.Equal(t, DefaultKeyLabel, l.Key)
	assert.Equal(t, "Field", l.Column)
	assert.Equal(t, DefaultOldValueLabel, l.OldValue)
	assert.Equal(t, DefaultNewValueLabel, l.NewValue)
	assert.Equal(t, DefaultChangedByLabel, l.ChangedBy)
	assert.Equal(t, "When", l.ChangedAt)
}

func TestRequest_Validate(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		r := &Request{Order: Ascending}
		assert.ErrorIs(t, r.Validate(), ErrEmptyTable)
	})

	t.Run("bad direction", func(t *testing.T) {
		r := &Request{Table: "dbo.Person", Order: "up"}
		assert.ErrorIs(t, r.Validate(), ErrInvalidDirection)
	})

	t.Run("empty order defaults to ascending", func(t *testing.T) {
		r := &Request{Table: "dbo.Person"}
		require.NoError(t, r.Validate())
		assert.Equal(t, Ascending, r.Order)
	})

	t.Run("normalizes direction and labels", func(t *testing.T) {
		r := &Request{Table: "dbo.Person", Order: "desc"}
		require.NoError(t, r.Validate())
		assert.Equal(t, Descending, r.Order)
		assert.Equal(t, DefaultLabels(), r.Labels)
	})
}

func TestCapabilities_Check(t *testing.T) {
	tests := []struct {
		name        string
		caps        Capabilities
		wantMissing []string
	}{
		{
			name: "sql server 2022",
			caps: Capabilities{MajorVersion: 16, CompatibilityLevel: 160},
		},
		{
			name: "sql server 2016",
			caps: Capabilities{MajorVersion: 13, CompatibilityLevel: 130},
		},
		{
			name:        "modern engine with old compatibility level",
			caps:        Capabilities{MajorVersion: 15, CompatibilityLevel: 120},
			wantMissing: []string{"OPENJSON"},
		},
		{
			name:        "sql server 2014",
			caps:        Capabilities{MajorVersion: 12, CompatibilityLevel: 120},
			wantMissing: []string{"FOR SYSTEM_TIME", "OPENJSON"},
		},
		{
			name:        "sql server 2008",
			caps:        Capabilities{MajorVersion: 10, CompatibilityLevel: 100},
			wantMissing: []string{"LAG window function", "THROW", "FOR SYSTEM_TIME", "OPENJSON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.caps.Check()
			if len(tt.wantMissing) == 0 {
				assert.NoError(t, err)
				return
			}
			var capErr *CapabilityError
			require.ErrorAs(t, err, &capErr)
			assert.Equal(t, tt.wantMissing, capErr.Missing)
			assert.Contains(t, err.Error(), "Hint:")
		})
	}
}
