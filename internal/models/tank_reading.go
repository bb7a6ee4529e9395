package models

import "time"

type TankReading struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TankID     string    `gorm:"index;type:varchar(8);column:tank_id" json:"tank_id"`
	Level      float64   `gorm:"type:numeric" json:"level"`
	RecordedAt time.Time `gorm:"index;column:recorded_at" json:"recorded_at"`
}

func (TankReading) TableName() string { return "tank_level_readings" }
