package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_UnixMethods(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tt := Time(now)

	assert.Equal(t, now.Unix(), tt.Unix())
	assert.Equal(t, now.UnixMilli(), tt.UnixMilli())
	assert.Equal(t, now.UnixMicro(), tt.UnixMicro())
	assert.Equal(t, now.UnixNano(), tt.UnixNano())
}

func TestTime_JSON(t *testing.T) {
	local := time.Date(2024, 1, 10, 8, 30, 0, 0, time.Local)

	data, err := json.Marshal(struct {
		At Time `json:"at"`
	}{At: Time(local)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-01-10 08:30:00"}`, string(data))

	var back struct {
		At Time `json:"at"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, local.Equal(back.At.Time()))
}

func TestTime_ZeroAndMillis(t *testing.T) {
	assert.True(t, FromUnixMilli(0).IsZero())

	data, err := json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))

	ms := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, ms, FromUnixMilli(ms).UnixMilli())
}

func TestTime_ScanText(t *testing.T) {
	var tt Time
	require.NoError(t, tt.Scan("2024-01-10 08:30:00.123+00:00"))
	assert.Equal(t, time.Date(2024, 1, 10, 8, 30, 0, 123000000, time.UTC).UnixMilli(), tt.UnixMilli())

	require.NoError(t, tt.Scan([]byte("2024-01-10T08:30:00Z")))
	assert.Equal(t, int64(1704875400), tt.Unix())

	assert.Error(t, tt.Scan("yesterday"))
	assert.Error(t, tt.Scan(42))
}
