package timetable

import "github.com/noah-isme/sma-timetable-api/internal/models"

// DefaultWorkingDays is Monday to Friday.
var DefaultWorkingDays = []int{1, 2, 3, 4, 5}

// IdealDistribution spreads a load's weekly hours across working days in blocks of
// the preferred consecutive size. The day reached when fewer hours than a block remain
// absorbs the remainder. When the week runs out before the hours do, allocation wraps
// back to the first day.
func IdealDistribution(load models.TeachingLoad, workingDays []int) []models.DayDistribution {
	if load.WeeklyHours <= 0 {
		return []models.DayDistribution{}
	}
	if len(workingDays) == 0 {
		workingDays = DefaultWorkingDays
	}
	block := load.BlockSize()

	result := make([]models.DayDistribution, 0, len(workingDays))
	index := make(map[int]int, len(workingDays))
	remaining := load.WeeklyHours
	for i := 0; remaining > 0; i++ {
		day := workingDays[i%len(workingDays)]
		lessons := block
		if remaining < block {
			lessons = remaining
		}
		pos, ok := index[day]
		if !ok {
			pos = len(result)
			index[day] = pos
			result = append(result, models.DayDistribution{Day: day})
		}
		result[pos].Lessons += lessons
		remaining -= lessons
	}
	for i := range result {
		result[i].Consecutive = result[i].Lessons > 1 && load.PreferredConsecutiveHours > 1
	}
	return result
}
