package extraction

import (
	"fmt"
	"time"

	"auction-harvester/utils"
)

// Row labels of the "Información general" table on a detail page.
const (
	LabelAuctionType   = "Tipo de subasta"
	LabelFilingAccount = "Cuenta expediente"
	LabelStartDate     = "Fecha de inicio"
	LabelEndDate       = "Fecha de conclusión"
	LabelClaimedAmount = "Cantidad reclamada"
	LabelLots          = "Lotes"
	LabelAnnouncement  = "Anuncio BOE"
	LabelAuctionValue  = "Valor subasta"
	LabelAppraisal     = "Tasación"
	LabelMinimumBid    = "Puja mínima"
	LabelDeposit       = "Importe del depósito"
)

// DetailFields are the detail-page-only fields of an auction. Missing rows
// leave their field empty or nil.
type DetailFields struct {
	AuctionType   string
	FilingAccount string
	StartDateRaw  string
	EndDateRaw    string
	StartDate     *time.Time
	EndDate       *time.Time
	ClaimedAmount *float64
	AuctionValue  *float64
	Appraisal     *float64
	MinimumBid    *float64
	DepositAmount *float64
	Lots          *int
	Announcement  string

	// Issues lists fields whose text was present but unreadable.
	Issues []string
}

// ExtractDetailPage reads the labeled rows of a detail page. It fails only
// when the page itself is unavailable.
func ExtractDetailPage(content *PageContent) (DetailFields, error) {
	if content.Empty() {
		return DetailFields{}, ErrPageUnavailable
	}

	var d DetailFields
	d.AuctionType, _ = content.Lookup(LabelAuctionType)
	d.FilingAccount, _ = content.Lookup(LabelFilingAccount)
	d.Announcement, _ = content.Lookup(LabelAnnouncement)

	d.StartDateRaw, _ = content.Lookup(LabelStartDate)
	d.StartDate = d.date(LabelStartDate, d.StartDateRaw)
	d.EndDateRaw, _ = content.Lookup(LabelEndDate)
	d.EndDate = d.date(LabelEndDate, d.EndDateRaw)

	d.ClaimedAmount = d.money(content, LabelClaimedAmount)
	d.AuctionValue = d.money(content, LabelAuctionValue)
	d.Appraisal = d.money(content, LabelAppraisal)
	d.MinimumBid = d.money(content, LabelMinimumBid)
	d.DepositAmount = d.money(content, LabelDeposit)

	lots, present := content.Lookup(LabelLots)
	d.Lots = utils.ParseLotsFlag(lots, present)

	return d, nil
}

func (d *DetailFields) money(content *PageContent, label string) *float64 {
	text, ok := content.Lookup(label)
	if !ok || text == "" {
		return nil
	}
	amount := utils.ParseMoney(text)
	if amount == nil && !placeholder(text) {
		d.Issues = append(d.Issues, fmt.Sprintf("%s: unreadable amount %q", label, text))
	}
	return amount
}

func (d *DetailFields) date(label, text string) *time.Time {
	if text == "" {
		return nil
	}
	t := utils.ParseAuctionDate(text)
	if t == nil && !placeholder(text) {
		d.Issues = append(d.Issues, fmt.Sprintf("%s: unreadable date %q", label, text))
	}
	return t
}

// placeholder reports texts the source uses for "no value".
func placeholder(text string) bool {
	switch text {
	case "-", "N/A", "No consta", "Sin tasación", "Sin puja mínima", "Sin cantidad", "Sin valor":
		return true
	}
	return false
}
