package domain

import (
	"time"
)

// User is an account row. Password always holds the bcrypt hash,
// never the plaintext.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Password    string     `gorm:"not null;column:password" json:"-"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }

// Folder belongs to exactly one user. OwnerUserID never changes after
// creation.
type Folder struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	FolderName  string `gorm:"not null;column:folder_name" json:"folder_name"`
	OwnerUserID uint   `gorm:"index;not null;column:owner_user_id" json:"owner_user_id"`
}

func (Folder) TableName() string { return "folders" }

// Question may be detached from any folder (FolderID nil); detached
// questions are only reachable by id and are never mutable through the
// owned-question path.
type Question struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	QuestionText   string     `gorm:"not null;column:question_text" json:"question_text"`
	Answer         string     `gorm:"not null;column:answer" json:"answer"`
	Explanation    *string    `gorm:"column:explanation" json:"explanation"`
	FolderID       *uint      `gorm:"index;column:folder_id" json:"folder_id"`
	CorrectCount   int        `gorm:"not null;default:0;column:correct_count" json:"correct_count"`
	IncorrectCount int        `gorm:"not null;default:0;column:incorrect_count" json:"incorrect_count"`
	LastAnsweredAt *time.Time `gorm:"column:last_answered_at" json:"last_answered_at"`
}

func (Question) TableName() string { return "questions" }

func (q *Question) TotalCount() int {
	return q.CorrectCount + q.IncorrectCount
}

// CorrectRate is derived at read time, never stored.
func (q *Question) CorrectRate() float64 {
	total := q.TotalCount()
	if total == 0 {
		return 0
	}
	return float64(q.CorrectCount) * 100.0 / float64(total)
}

// FolderSummary is the folder list row: folders with zero questions
// still appear with QuestionCount 0.
type FolderSummary struct {
	ID            uint   `json:"id"`
	FolderName    string `json:"folder_name"`
	QuestionCount int64  `json:"question_count"`
}

// QuestionWithStats is the folder list view of a question, with the
// derived totals alongside the raw counters.
type QuestionWithStats struct {
	ID             uint       `json:"id"`
	QuestionText   string     `json:"question_text"`
	Answer         string     `json:"answer"`
	Explanation    *string    `json:"explanation"`
	FolderID       *uint      `json:"folder_id"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	TotalCount     int        `json:"total_count"`
	CorrectRate    float64    `json:"correct_rate"`
	LastAnsweredAt *time.Time `json:"last_answered_at"`
}

func (q *Question) WithStats() *QuestionWithStats {
	return &QuestionWithStats{
		ID:             q.ID,
		QuestionText:   q.QuestionText,
		Answer:         q.Answer,
		Explanation:    q.Explanation,
		FolderID:       q.FolderID,
		CorrectCount:   q.CorrectCount,
		IncorrectCount: q.IncorrectCount,
		TotalCount:     q.TotalCount(),
		CorrectRate:    q.CorrectRate(),
		LastAnsweredAt: q.LastAnsweredAt,
	}
}

// PlayQuestion is the quiz-session projection: prompt and answer only,
// no statistics and no explanation.
type PlayQuestion struct {
	ID           uint   `json:"id"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
}
