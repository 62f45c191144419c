package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeString
		wantErr bool
	}{
		{name: "valid morning", input: "09:30", want: "09:30"},
		{name: "valid midnight", input: "00:00", want: "00:00"},
		{name: "valid end of day", input: "23:59", want: "23:59"},
		{name: "missing leading zero", input: "9:30", wantErr: true},
		{name: "out of range hour", input: "24:00", wantErr: true},
		{name: "out of range minute", input: "12:60", wantErr: true},
		{name: "with seconds", input: "12:00:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeString_Minutes(t *testing.T) {
	ts := TimeString("10:45")
	minutes, err := ts.Minutes()
	require.NoError(t, err)
	assert.Equal(t, 10*60+45, minutes)

	_, err = TimeString("bad").Minutes()
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts := TimeString("10:00")

	got, err := ts.AddMinutes(90)
	require.NoError(t, err)
	assert.Equal(t, TimeString("11:30"), got)

	// Отрицательный сдвиг
	got, err = ts.AddMinutes(-30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:30"), got)

	// Обрезается до границ суток
	got, err = TimeString("23:00").AddMinutes(120)
	require.NoError(t, err)
	assert.Equal(t, TimeString("23:59"), got)

	got, err = TimeString("00:30").AddMinutes(-60)
	require.NoError(t, err)
	assert.Equal(t, TimeString("00:00"), got)
}

func TestTimeString_Comparisons(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("10:00"))
	assert.False(t, TimeString("10:00").IsBefore("10:00"))
	assert.True(t, TimeString("18:30").IsAfter("18:00"))
	assert.False(t, TimeString("18:00").IsAfter("18:00"))
}

func TestTimeString_OnDate(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	got, err := TimeString("14:30").OnDate(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC), got)

	_, err = TimeString("").OnDate(date)
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	// Postgres TIME приходит с секундами
	require.NoError(t, ts.Scan("10:30:00"))
	assert.Equal(t, TimeString("10:30"), ts)

	require.NoError(t, ts.Scan([]byte("09:15:00")))
	assert.Equal(t, TimeString("09:15"), ts)

	require.NoError(t, ts.Scan(time.Date(2026, 3, 10, 8, 45, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("08:45"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}

func TestTimeString_Value(t *testing.T) {
	v, err := TimeString("10:30").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:30", v)

	v, err = TimeString("").Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = TimeString("bad").Value()
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}
