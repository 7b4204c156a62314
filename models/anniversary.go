package models

import "gorm.io/gorm"

// Anniversary represents a user's registered HRT start date along with
// the timezone and channel the yearly announcement is scoped to.
type Anniversary struct {
	gorm.Model
	UserID          string `gorm:"uniqueIndex:idx_anniversaries_identity"`
	GuildID         string `gorm:"uniqueIndex:idx_anniversaries_identity"`
	AnniversaryDate string
	Timezone        string
	ChannelID       string
}
