package model

// swagger:model MasterTimeZone
type MasterTimeZone struct {
	BaseModel
	Code        string `gorm:"size:64;uniqueIndex;not null" json:"code"`
	IANAName    string `gorm:"size:64;not null" json:"ianaName"`
	DisplayName string `gorm:"size:128" json:"displayName"`
}

func (MasterTimeZone) TableName() string {
	return "master_time_zones"
}
