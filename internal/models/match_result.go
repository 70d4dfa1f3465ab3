package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MatchResult is written once, together with its resume and job description.
type MatchResult struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID            *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ResumeID          uuid.UUID      `gorm:"type:uuid;not null" json:"resume_id"`
	JobDescriptionID  uuid.UUID      `gorm:"type:uuid;not null" json:"jd_id"`
	MatchedSkills     pq.StringArray `gorm:"type:text[]" json:"matched_skills"`
	MissingSkills     pq.StringArray `gorm:"type:text[]" json:"missing_skills"`
	MatchPercentage   float64        `gorm:"type:decimal(5,2)" json:"match_percentage"`
	Mode              string         `gorm:"type:text" json:"mode"`
	Degraded          bool           `json:"degraded"`
	LLMRecommendation string         `gorm:"type:text" json:"llm_recommendation,omitempty"`
	CreatedAt         time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	User           *User           `gorm:"foreignKey:UserID" json:"-"`
	Resume         *Resume         `gorm:"foreignKey:ResumeID" json:"resume,omitempty"`
	JobDescription *JobDescription `gorm:"foreignKey:JobDescriptionID" json:"job_description,omitempty"`
}

func (MatchResult) TableName() string {
	return "match_results"
}
