package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('student','teacher','admin');default:'student'" json:"role"`
	Avatar   string   `gorm:"size:255" json:"avatar"`
	Disabled bool     `gorm:"default:false" json:"disabled"`

	// Assessment aggregates, mutated only through StatsRepository
	// increments. The average percentage is derived on read.
	QuizzesTaken int64   `gorm:"default:0" json:"quizzesTaken"`
	ScoreSum     float64 `gorm:"default:0" json:"-"`
	TotalPoints  float64 `gorm:"default:0" json:"totalPoints"` // lifetime accumulated points

	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen  time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// AverageScore derives the user's average quiz percentage from the
// running sum and count.
func (u *User) AverageScore() float64 {
	if u.QuizzesTaken == 0 {
		return 0
	}
	return u.ScoreSum / float64(u.QuizzesTaken)
}
