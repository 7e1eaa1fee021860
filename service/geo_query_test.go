package service

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func TestBuildGeoQuery(t *testing.T) {
	tests := []struct {
		name         string
		venue        *string
		address      *string
		city         *string
		neighborhood *string
		want         string
		wantOK       bool
	}{
		{
			name:         "address with neighborhood",
			address:      strPtr("221B Baker St"),
			neighborhood: strPtr("Marylebone"),
			want:         "221B Baker St, Marylebone",
			wantOK:       true,
		},
		{
			name:   "nothing",
			wantOK: false,
		},
		{
			name:   "venue with city",
			venue:  strPtr("Joe's Diner"),
			city:   strPtr("Austin"),
			want:   "Joe's Diner, Austin",
			wantOK: true,
		},
		{
			name:         "address preferred over venue, city over neighborhood",
			venue:        strPtr("Joe's Diner"),
			address:      strPtr("1 Main St"),
			city:         strPtr("Austin"),
			neighborhood: strPtr("East Side"),
			want:         "1 Main St, Austin",
			wantOK:       true,
		},
		{
			name:   "place only",
			venue:  strPtr("Joe's Diner"),
			want:   "Joe's Diner",
			wantOK: true,
		},
		{
			name:   "area only",
			city:   strPtr("Austin"),
			want:   "Austin",
			wantOK: true,
		},
		{
			name:    "blank strings are absent",
			venue:   strPtr("Joe's Diner"),
			address: strPtr("  "),
			city:    strPtr(""),
			want:    "Joe's Diner",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BuildGeoQuery(tt.venue, tt.address, tt.city, tt.neighborhood)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPoisoned(t *testing.T) {
	assert.False(t, IsPoisoned(1, 3))
	assert.False(t, IsPoisoned(3, 3))
	assert.True(t, IsPoisoned(4, 3))
	assert.True(t, IsPoisoned(4, 0))
	assert.True(t, IsPoisoned(2, 1))
}
