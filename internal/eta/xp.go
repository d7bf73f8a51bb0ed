package eta

import "math"

// MaxTableLevel is the highest level in the XP table.
const MaxTableLevel = 120

var levelXP = buildLevelTable(MaxTableLevel)

func buildLevelTable(max int) []float64 {
	table := make([]float64, max+1)
	points := 0.0
	for l := 1; l < max; l++ {
		points += math.Floor(float64(l) + 300*math.Pow(2, float64(l)/7))
		table[l+1] = math.Floor(points / 4)
	}
	return table
}

// LevelXP returns the total XP required to reach level. Levels are clamped
// to [1, MaxTableLevel].
func LevelXP(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > MaxTableLevel {
		level = MaxTableLevel
	}
	return levelXP[level]
}

// LevelFor returns the highest level whose requirement xp meets.
func LevelFor(xp float64) int {
	level := 1
	for l := 2; l <= MaxTableLevel && levelXP[l] <= xp; l++ {
		level = l
	}
	return level
}
