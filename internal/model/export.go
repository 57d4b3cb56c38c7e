package model

import "time"

// swagger:model ExportArtifact
type ExportArtifact struct {
	UUIDBase
	FormID      uint      `gorm:"index;not null" json:"formId"`
	Format      string    `gorm:"size:10;not null" json:"format"`
	FileName    string    `gorm:"size:255;not null" json:"fileName"`
	ContentType string    `gorm:"size:100" json:"contentType"`
	StorageKey  string    `gorm:"size:255;not null" json:"-"`
	Size        int64     `json:"size"`
	ExpiresAt   time.Time `gorm:"index" json:"expiresAt"`
}

func (ExportArtifact) TableName() string {
	return "export_artifacts"
}

func (a *ExportArtifact) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
