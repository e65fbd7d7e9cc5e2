// Package model defines shared data structures.
package model

import "time"

// Lesson statuses as reported by the backend.
const (
	LessonLocked    = "locked"
	LessonCurrent   = "current"
	LessonCompleted = "completed"
)

// ChallengeType names an exercise kind.
type ChallengeType string

// Supported challenge types.
const (
	ChallengeMultipleChoice ChallengeType = "MULTIPLE_CHOICE"
	ChallengeOrder          ChallengeType = "ORDER"
	ChallengePairs          ChallengeType = "PAIRS"
)

// Unit groups lessons of one level.
type Unit struct {
	ID           int      `json:"id" toml:"id"`
	DisplayOrder int      `json:"displayOrder" toml:"order"`
	Title        string   `json:"title" toml:"title"`
	Description  string   `json:"description" toml:"description"`
	Level        string   `json:"level" toml:"level"`
	Lessons      []Lesson `json:"lessons" toml:"lessons"`
}

// Lesson is one playable step of a unit.
type Lesson struct {
	ID     int    `json:"id" toml:"id"`
	Order  int    `json:"order" toml:"order"`
	Name   string `json:"name" toml:"name"`
	Type   string `json:"type" toml:"type"`
	Status string `json:"status" toml:"status"`
}

// Challenge is a single exercise within a lesson.
type Challenge struct {
	ID        int               `json:"id" toml:"id"`
	LessonID  int               `json:"lessonId" toml:"-"`
	Type      ChallengeType     `json:"type" toml:"type"`
	Question  string            `json:"question" toml:"question"`
	Options   []ChallengeOption `json:"challengeOptions" toml:"options"`
	Words     []string          `json:"words" toml:"words"`
	Answer    string            `json:"correct" toml:"answer"`
	Pairs     []Pair            `json:"pairs" toml:"pairs"`
	Completed bool              `json:"completed" toml:"completed"`
}

// ChallengeOption is one answer of a multiple-choice challenge.
type ChallengeOption struct {
	ID      int    `json:"id" toml:"id"`
	Text    string `json:"option" toml:"text"`
	Correct bool   `json:"isCorrect" toml:"correct"`
}

// Pair is one row of a pair-matching challenge.
type Pair struct {
	ID       int    `json:"id" toml:"id"`
	Japanese string `json:"japanese" toml:"japanese"`
	Meaning  string `json:"meaning" toml:"meaning"`
}

// Profile is the backend view of a learner.
type Profile struct {
	Name   string `json:"name"`
	UserXP int    `json:"userXP"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// ProfileUpdate is the editable part of a profile.
type ProfileUpdate struct {
	UserID      int    `json:"userId"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Avatar      string `json:"avatar"`
}

// LessonRun captures a finished or abandoned lesson.
type LessonRun struct {
	ID        string
	LessonID  int
	Practice  bool
	StartedAt time.Time
	EndedAt   time.Time
	Correct   int
	Incorrect int
	XP        int
	Completed bool
}
