package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"30m":  30 * time.Minute,
		" 2d ": 48 * time.Hour,
		"45":   45 * time.Second,
		"1h5s": time.Hour + 5*time.Second,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"xd", "soon", ""} {
		_, err := ParseDuration(bad)
		assert.Error(t, err, bad)
	}
}
