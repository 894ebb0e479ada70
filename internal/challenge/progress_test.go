package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceMidChallenge(t *testing.T) {
	p := Advance(3, 7, 2)

	assert.Equal(t, 4, p.CurrentDay)
	assert.Equal(t, 3, p.StreakDays)
	assert.False(t, p.Completed)
}

func TestAdvanceFinalDayCompletes(t *testing.T) {
	p := Advance(7, 7, 6)

	assert.Equal(t, 8, p.CurrentDay)
	assert.Equal(t, 7, p.StreakDays)
	assert.True(t, p.Completed)
}

func TestAdvanceDayBeforeFinalDoesNotComplete(t *testing.T) {
	p := Advance(6, 7, 5)

	assert.Equal(t, 7, p.CurrentDay)
	assert.False(t, p.Completed)
}

func TestAdvanceCapsCurrentDay(t *testing.T) {
	// A day number past the duration still lands on duration+1.
	p := Advance(12, 7, 0)

	assert.Equal(t, 8, p.CurrentDay)
	assert.True(t, p.Completed)
}

func TestAdvanceFallsBackToDefaultDuration(t *testing.T) {
	p := Advance(5, 0, 4)

	assert.Equal(t, 6, p.CurrentDay)
	assert.Equal(t, 5, p.StreakDays)
	assert.False(t, p.Completed)

	final := Advance(DefaultDurationDays, 0, 29)
	assert.True(t, final.Completed)
}

func TestAdvanceDuplicateDayBumpsStreakTwice(t *testing.T) {
	// Duplicate check-ins for the same day are not deduplicated: the
	// streak increments on every call.
	first := Advance(4, 14, 3)
	second := Advance(4, 14, first.StreakDays)

	assert.Equal(t, first.CurrentDay, second.CurrentDay)
	assert.Equal(t, 5, second.StreakDays)
}
