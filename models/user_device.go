package models

import "gorm.io/gorm"

// UserDevice is a registered push endpoint for one device.
type UserDevice struct {
	gorm.Model
	UserID      uint   `gorm:"not null;uniqueIndex:idx_user_devices_user_token"`
	Platform    string `gorm:"size:16"`
	TokenHash   string `gorm:"size:64;uniqueIndex:idx_user_devices_user_token"`
	EndpointARN string
	Enabled     bool `gorm:"default:true"`
}
