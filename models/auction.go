package models

import (
	"time"
)

// Auction is one harvested listing unit, keyed by the source identity
// (SUB-<CATEGORY>-<YEAR>-<SEQ>). Listing fields are set at first sight;
// monetary and date fields come from the detail page.
type Auction struct {
	Identity      string    `json:"identity" gorm:"primaryKey;column:identity;type:varchar(64)"`
	Category      string    `json:"category" gorm:"column:category;type:varchar(64)"`
	Authority     string    `json:"authority" gorm:"column:authority;type:varchar(255)"`
	CaseReference string    `json:"case_reference" gorm:"column:case_reference;type:varchar(128)"`
	Status        string    `json:"status" gorm:"column:status;type:varchar(255);index"`
	Description   string    `json:"description" gorm:"column:description;type:text"`
	DetailURL     string    `json:"detail_url" gorm:"column:detail_url;type:varchar(512)"`
	ExtractedAt   time.Time `json:"extracted_at" gorm:"column:extracted_at"`

	AuctionType   string     `json:"auction_type" gorm:"column:auction_type;type:varchar(128)"`
	FilingAccount string     `json:"filing_account" gorm:"column:filing_account;type:varchar(128)"`
	StartDate     *time.Time `json:"start_date,omitempty" gorm:"column:start_date"`
	EndDate       *time.Time `json:"end_date,omitempty" gorm:"column:end_date;index"`
	StartDateRaw  string     `json:"start_date_raw" gorm:"column:start_date_raw;type:varchar(128)"`
	EndDateRaw    string     `json:"end_date_raw" gorm:"column:end_date_raw;type:varchar(128)"`
	ClaimedAmount *float64   `json:"claimed_amount" gorm:"column:claimed_amount"`
	AuctionValue  *float64   `json:"auction_value" gorm:"column:auction_value"`
	Appraisal     *float64   `json:"appraisal" gorm:"column:appraisal"`
	MinimumBid    *float64   `json:"minimum_bid" gorm:"column:minimum_bid"`
	DepositAmount *float64   `json:"deposit_amount" gorm:"column:deposit_amount"`
	Lots          *int       `json:"lots" gorm:"column:lots"`
	Announcement  string     `json:"announcement" gorm:"column:announcement;type:varchar(128)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`

	// Relations
	Asset *Asset `json:"asset,omitempty" gorm:"foreignKey:AuctionIdentity;references:Identity;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Auction) TableName() string { return "auctions" }

// DetailColumns are the columns a detail upgrade may overwrite on an
// existing row; listing fields stay as first seen.
var DetailColumns = []string{
	"auction_type", "filing_account", "start_date", "end_date", "start_date_raw", "end_date_raw",
	"claimed_amount", "auction_value", "appraisal", "minimum_bid", "deposit_amount", "lots",
	"announcement", "updated_at",
}
