package challenge

// Progress is the outcome of applying one check-in to a participation.
type Progress struct {
	CurrentDay int
	StreakDays int
	Completed  bool
}

// Advance computes the next progress state after a check-in for dayNumber.
// current_day is capped at duration+1, which doubles as the completed
// marker. The streak is incremented on every check-in; there is no
// date-gap or duplicate-day detection, so checking in twice for the same
// day bumps the streak twice.
func Advance(dayNumber, durationDays, streakDays int) Progress {
	if durationDays <= 0 {
		durationDays = DefaultDurationDays
	}

	newCurrentDay := dayNumber + 1
	if newCurrentDay > durationDays+1 {
		newCurrentDay = durationDays + 1
	}

	return Progress{
		CurrentDay: newCurrentDay,
		StreakDays: streakDays + 1,
		Completed:  newCurrentDay > durationDays,
	}
}
