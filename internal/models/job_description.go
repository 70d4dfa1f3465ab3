package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobDescription struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Source    string         `gorm:"type:text" json:"source"`
	JDText    string         `gorm:"type:text" json:"-"`
	Skills    pq.StringArray `gorm:"type:text[]" json:"skills"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (JobDescription) TableName() string {
	return "job_descriptions"
}
