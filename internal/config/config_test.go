package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "tennis", cfg.FacilityID)
	assert.Equal(t, 30*time.Minute, cfg.SlotGranularity)
	assert.Equal(t, int64(1000), cfg.FeePerSlot)
	assert.Equal(t, 9, cfg.OpenHour)
	assert.Equal(t, 22, cfg.CloseHour)
	assert.True(t, cfg.ClosedWeekdays[time.Saturday])
	assert.True(t, cfg.ClosedWeekdays[time.Sunday])
	assert.False(t, cfg.ClosedWeekdays[time.Monday])
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("FACILITY_ID", "padel")
	t.Setenv("SLOT_GRANULARITY_MIN", "60")
	t.Setenv("FEE_PER_SLOT", "2500")
	t.Setenv("CLOSED_WEEKDAYS", "Monday")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "padel", cfg.FacilityID)
	assert.Equal(t, time.Hour, cfg.SlotGranularity)
	assert.Equal(t, int64(2500), cfg.FeePerSlot)
	assert.True(t, cfg.ClosedWeekdays[time.Monday])
	assert.False(t, cfg.ClosedWeekdays[time.Saturday])
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FEE_PER_SLOT", "a-lot")
	t.Setenv("OPEN_HOUR", "nine")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.FeePerSlot)
	assert.Equal(t, 9, cfg.OpenHour)
}

func TestPricing(t *testing.T) {
	cfg := &Config{SlotGranularity: 30 * time.Minute, FeePerSlot: 1000}

	pricing := cfg.Pricing()

	assert.Equal(t, 30*time.Minute, pricing.Granularity)
	assert.Equal(t, int64(1000), pricing.FeePerSlot)
}

func TestParseWeekdays(t *testing.T) {
	closed := parseWeekdays(" saturday , SUNDAY ,nonsense")

	assert.True(t, closed[time.Saturday])
	assert.True(t, closed[time.Sunday])
	assert.Len(t, closed, 2)
}
