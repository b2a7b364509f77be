package model

// StatsDelta carries the aggregate increments produced by grading one
// attempt. Applied atomically together with the attempt insert.
type StatsDelta struct {
	QuizID     string
	UserID     uint
	Percentage float64 // attempt percentage, added to both running sums
	Score      float64 // raw points, added to the user's lifetime total
}
