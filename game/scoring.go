package game

import "time"

const (
	PointsPerBlock = 10
	PointsPerLevel = 1000

	BaseDelay = 12000 * time.Millisecond
	DelayStep = 500 * time.Millisecond
	MinDelay  = 2500 * time.Millisecond
)

// ScoreDelta returns the points for one placement: lines * blocks * 10 * multiplier.
// A placement that clears nothing scores 0.
func ScoreDelta(lines, blocks, multiplier int) int {
	if lines <= 0 || blocks <= 0 {
		return 0
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return lines * blocks * PointsPerBlock * multiplier
}

// NextMultiplier returns the multiplier for the following placement. It is
// applied after the current placement has been scored with the old value.
func NextMultiplier(lines, multiplier int) int {
	if lines == 0 || multiplier < 1 {
		return 1
	}
	return multiplier + 1
}

// LevelForScore derives the level from the cumulative score.
func LevelForScore(score int) int {
	if score < 0 {
		return 0
	}
	return score / PointsPerLevel
}

// TimerDelay is the time allowed to place a piece at the given level:
// 12000ms minus 500ms per level, never below 2500ms.
func TimerDelay(level int) time.Duration {
	d := BaseDelay - time.Duration(level)*DelayStep
	if d < MinDelay {
		return MinDelay
	}
	return d
}
