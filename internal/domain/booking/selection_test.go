package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCardMatches(t *testing.T) {
	t.Parallel()
	text := "Pickleball Open Play\n7:00 PM - 9:00 PM\nCourt 3\nReserve"
	tests := []struct {
		name     string
		criteria MatchCriteria
		want     bool
	}{
		{name: "empty criteria", criteria: nil, want: true},
		{name: "single match", criteria: MatchCriteria{"Open Play"}, want: true},
		{name: "all match", criteria: MatchCriteria{"Court 3", "7:00 PM", "Pickleball"}, want: true},
		{name: "one missing", criteria: MatchCriteria{"Pickleball", "Court 4"}, want: false},
		{name: "case sensitive", criteria: MatchCriteria{"pickleball"}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CardMatches(text, tt.criteria))
		})
	}
}

func TestParseCriteria(t *testing.T) {
	t.Parallel()
	require.Equal(t, MatchCriteria{"Pickleball", "7:00 PM"}, ParseCriteria(" Pickleball, ,7:00 PM ,"))
	require.Empty(t, ParseCriteria(""))
}

func TestChooseCard(t *testing.T) {
	t.Parallel()
	cards := []string{"Yoga 6:00 PM", "Pickleball 6:00 PM", "Pickleball 7:00 PM"}

	i, ok := ChooseCard(cards, MatchCriteria{"Pickleball", "7:00"})
	require.True(t, ok)
	require.Equal(t, 2, i)

	i, ok = ChooseCard(cards, MatchCriteria{"Pickleball"})
	require.True(t, ok)
	require.Equal(t, 1, i)

	_, ok = ChooseCard(cards, MatchCriteria{"Tennis"})
	require.False(t, ok)
}
