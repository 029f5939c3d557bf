package services

import (
	"testing"
	"time"

	"clinic-crm-server/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"18:00", 1080, false},
		{"23:59", 1439, false},
		{"9:00", 0, true},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12-30", 0, true},
		{"09:3X", 0, true},
		{"0X:30", 0, true},
		{"09: 3", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "17:30", FormatClock(1050))
	assert.Equal(t, "00:05", FormatClock(5))
}

func TestIsWorkingTime(t *testing.T) {
	policy := DefaultSlotPolicy()

	tests := []struct {
		name string
		date time.Time
		time string
		want bool
	}{
		{"opening bound", monday, "09:00", true},
		{"closing bound", monday, "18:00", true},
		{"midday", monday, "13:15", true},
		{"before opening", monday, "08:59", false},
		{"after closing", monday, "18:01", false},
		{"sunday", sunday, "10:00", false},
		{"unparseable", monday, "later", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsWorkingTime(tt.date, tt.time))
		})
	}
}

func TestSlots(t *testing.T) {
	policy := DefaultSlotPolicy()

	half := policy.Slots(30)
	assert.Len(t, half, 18)
	assert.Equal(t, "09:00", half[0])
	assert.Equal(t, "17:30", half[len(half)-1])

	hour := policy.Slots(60)
	assert.Len(t, hour, 9)
	assert.Equal(t, "17:00", hour[len(hour)-1])

	// Zero duration falls back to the policy step.
	assert.Equal(t, half, policy.Slots(0))
}

func TestNewSlotPolicyFromConfig(t *testing.T) {
	policy := NewSlotPolicy(config.ClinicConfig{
		WorkingStart: "08:00",
		WorkingEnd:   "20:00",
		SlotMinutes:  45,
	})
	assert.Equal(t, 480, policy.StartMinutes)
	assert.Equal(t, 1200, policy.EndMinutes)
	assert.Equal(t, 45, policy.SlotMinutes)

	// Unparseable values keep the defaults.
	fallback := NewSlotPolicy(config.ClinicConfig{WorkingStart: "early"})
	assert.Equal(t, 540, fallback.StartMinutes)
	assert.Equal(t, 1080, fallback.EndMinutes)
	assert.Equal(t, 30, fallback.SlotMinutes)
}
