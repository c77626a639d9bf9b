package reserve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultControlsMatchExactly(t *testing.T) {
	t.Parallel()
	c := DefaultSelectors().Controls
	require.True(t, c.Reserve.Exact)
	require.True(t, c.Finish.Exact)
	require.True(t, c.Waitlist.Exact)
}

func TestLoggedInURL(t *testing.T) {
	t.Parallel()
	re := DefaultSelectors().LoggedInURL
	require.True(t, re.MatchString("https://club.example/account/dashboard"))
	require.True(t, re.MatchString("https://club.example/home.html"))
	require.False(t, re.MatchString("https://club.example/login.html"))
}
