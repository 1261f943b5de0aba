package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "2026-10-19", want: "2026-10-19"},
		{name: "leap day", in: "2024-02-29", want: "2024-02-29"},
		{name: "not a date", in: "19/10/2026", wantErr: true},
		{name: "with time", in: "2026-10-19T10:00:00Z", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDateOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	local := time.Date(2026, 10, 20, 2, 0, 0, 0, loc)
	assert.Equal(t, "2026-10-19", DateOf(local).String())
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2026, time.March, 7)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-07"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 0, d.Compare(back))

	var empty Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.True(t, empty.IsZero())
}

func TestEventIsUpcoming(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)
	today := DateOf(now)
	assert.True(t, Event{Date: today}.IsUpcoming(now))
	assert.True(t, Event{Date: today.AddDays(7)}.IsUpcoming(now))
	assert.False(t, Event{Date: today.AddDays(-1)}.IsUpcoming(now))
	assert.Equal(t, 7, today.AddDays(7).DaysUntil(now))
}
