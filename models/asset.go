package models

import "time"

// Asset is the single good captured for an auction. Visitable is kept as
// the source's free text because the source is inconsistent about it.
type Asset struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AuctionIdentity  string    `json:"auction_identity" gorm:"column:auction_identity;type:varchar(64);not null;uniqueIndex"`
	Category         string    `json:"category" gorm:"column:category;type:varchar(255)"`
	Description      string    `json:"description" gorm:"column:description;type:text"`
	RegistryID       string    `json:"registry_id" gorm:"column:registry_id;type:varchar(64)"`
	CadastralRef     string    `json:"cadastral_reference" gorm:"column:cadastral_reference;type:varchar(64)"`
	Address          string    `json:"address" gorm:"column:address;type:varchar(512)"`
	PostalCode       string    `json:"postal_code" gorm:"column:postal_code;type:varchar(16)"`
	Locality         string    `json:"locality" gorm:"column:locality;type:varchar(128);index"`
	Province         string    `json:"province" gorm:"column:province;type:varchar(128)"`
	PossessionStatus string    `json:"possession_status" gorm:"column:possession_status;type:varchar(255)"`
	Visitable        string    `json:"visitable" gorm:"column:visitable;type:varchar(128)"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Asset) TableName() string { return "assets" }
