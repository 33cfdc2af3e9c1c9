package domain

import "github.com/google/uuid"

type Location struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LocationName string    `gorm:"column:location_name;not null" json:"location_name"`
	Latitude     float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude    float64   `gorm:"column:longitude;not null" json:"longitude"`
}

func (Location) TableName() string {
	return "event_locations"
}

type TaxiZone struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ZoneName string    `gorm:"column:zone_name;not null" json:"zone_name"`
}

func (TaxiZone) TableName() string {
	return "taxi_zones"
}
