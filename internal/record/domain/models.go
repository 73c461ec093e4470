// Package domain contains persistence models for stored charts and horoscopes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Record is a stored row addressed by a snowflake id.
type Record interface {
	RecordID() snowflake.ID
}

// ChartRecord is one stored natal chart. At most one row exists per ChartKey.
type ChartRecord struct {
	ID         snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SolarDate  string         `gorm:"type:varchar(8);not null;uniqueIndex:uq_iztro_astro_identity,priority:1" json:"solar_date"`
	TimeIndex  int            `gorm:"not null;uniqueIndex:uq_iztro_astro_identity,priority:2" json:"time_index"`
	Gender     string         `gorm:"type:varchar(8);not null;uniqueIndex:uq_iztro_astro_identity,priority:3" json:"gender"`
	FixLeap    int            `gorm:"not null;default:1" json:"fix_leap"`
	Language   string         `gorm:"type:varchar(8);not null" json:"language"`
	Payload    datatypes.JSON `gorm:"not null" json:"payload"`
	CreateUser string         `gorm:"type:varchar(64);not null" json:"create_user"`
	UpdateUser string         `gorm:"type:varchar(64);not null" json:"update_user"`
	CreateTime time.Time      `gorm:"not null" json:"create_time"`
	UpdateTime time.Time      `gorm:"not null" json:"update_time"`
}

// TableName sets the database table name.
func (ChartRecord) TableName() string { return "iztro_astro" }

func (r ChartRecord) RecordID() snowflake.ID { return r.ID }

// HoroscopeRecord is one stored horoscope projection. At most one row exists per HoroscopeKey.
type HoroscopeRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SolarDate       string         `gorm:"type:varchar(8);not null;uniqueIndex:uq_iztro_horoscope_identity,priority:1" json:"solar_date"`
	TimeIndex       int            `gorm:"not null;uniqueIndex:uq_iztro_horoscope_identity,priority:2" json:"time_index"`
	Gender          string         `gorm:"type:varchar(8);not null;uniqueIndex:uq_iztro_horoscope_identity,priority:3" json:"gender"`
	TargetDate      string         `gorm:"type:varchar(8);not null;uniqueIndex:uq_iztro_horoscope_identity,priority:4" json:"target_date"`
	TargetTimeIndex int            `gorm:"not null;uniqueIndex:uq_iztro_horoscope_identity,priority:5" json:"target_time_index"`
	Payload         datatypes.JSON `gorm:"not null" json:"payload"`
	CreateUser      string         `gorm:"type:varchar(64);not null" json:"create_user"`
	UpdateUser      string         `gorm:"type:varchar(64);not null" json:"update_user"`
	CreateTime      time.Time      `gorm:"not null" json:"create_time"`
	UpdateTime      time.Time      `gorm:"not null" json:"update_time"`
}

// TableName sets the database table name.
func (HoroscopeRecord) TableName() string { return "iztro_horoscope" }

func (r HoroscopeRecord) RecordID() snowflake.ID { return r.ID }
