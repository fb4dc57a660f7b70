package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlacementTestResult 外部测评平台推送的一次测验结果。
// result_id 是平台侧的稳定主键，本地用唯一索引保证一条结果只有一行；
// docname 是对外暴露的内部记录标识。
type PlacementTestResult struct {
	gorm.Model
	Docname           string     `gorm:"size:64;uniqueIndex;not null" json:"docname"`
	ResultID          int64      `gorm:"uniqueIndex;not null" json:"result_id"`
	QuizID            *int64     `json:"quiz_id,omitempty"`
	QuizTitle         string     `gorm:"size:255;not null" json:"quiz_title"`
	ScorePercentage   *float64   `json:"score_percentage,omitempty"`
	FinalScore        *float64   `json:"final_score,omitempty"`
	ScoreBy           *float64   `json:"score_by,omitempty"`
	ScoreType         *string    `gorm:"size:64" json:"score_type,omitempty"`
	Points            *float64   `json:"points,omitempty"`
	DurationSeconds   *int64     `json:"duration_seconds,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	StudentName       *string    `gorm:"size:255" json:"student_name,omitempty"`
	StudentID         *string    `gorm:"size:255" json:"student_id,omitempty"`
	TesterName        *string    `gorm:"size:255" json:"tester_name,omitempty"`
	UserEmail         *string    `gorm:"size:255" json:"user_email,omitempty"`
	UserPhone         *string    `gorm:"size:64" json:"user_phone,omitempty"`
	UserIP            *string    `gorm:"size:64" json:"user_ip,omitempty"`
	IntegrationSource *string    `gorm:"size:64" json:"integration_source,omitempty"`
	RawPayload        string     `gorm:"type:longtext" json:"raw_payload,omitempty"`
}

func (PlacementTestResult) TableName() string {
	return "placement_test_results"
}

func (r *PlacementTestResult) BeforeCreate(tx *gorm.DB) error {
	if r.Docname == "" {
		r.Docname = uuid.NewString()
	}
	return nil
}
