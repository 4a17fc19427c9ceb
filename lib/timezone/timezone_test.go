package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetLocation(t *testing.T) {
	previous := Location
	t.Cleanup(func() { Location = previous })

	require.NoError(t, SetLocation(""))
	require.Equal(t, previous, Location)

	require.NoError(t, SetLocation("America/New_York"))
	require.Equal(t, "America/New_York", Location.String())

	require.Error(t, SetLocation("Not/AZone"))
	require.Equal(t, "America/New_York", Location.String())
}

func TestStamp(t *testing.T) {
	previous := Location
	t.Cleanup(func() { Location = previous })
	Location = time.UTC

	at := time.Date(2024, time.August, 5, 9, 3, 7, 0, time.FixedZone("x", 2*60*60))
	require.Equal(t, "20240805-070307", Stamp(at))
	require.Regexp(t, `^\d{8}-\d{6}_standups\.csv$`, StampedName("standups.csv"))
}
