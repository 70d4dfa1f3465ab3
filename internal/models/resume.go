package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Record is any row the recorder can append.
type Record interface {
	TableName() string
}

type Resume struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	FileName    string         `gorm:"type:text" json:"file_name"`
	RawText     string         `gorm:"type:text" json:"-"`
	Name        string         `gorm:"type:text" json:"name"`
	Email       string         `gorm:"type:text" json:"email"`
	Phone       string         `gorm:"type:text" json:"phone"`
	LinkedInURL string         `gorm:"type:text" json:"linkedin_url"`
	GitHubURL   string         `gorm:"type:text" json:"github_url"`
	Address     string         `gorm:"type:text" json:"address"`
	Skills      pq.StringArray `gorm:"type:text[]" json:"skills"`
	CreatedAt   time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Resume) TableName() string {
	return "resumes"
}
