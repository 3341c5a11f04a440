package commands

import (
	"fmt"
	"io"
	"time"

	"auction-harvester/models"
	"auction-harvester/utils"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func localTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(utils.AuctionLocation).Format("2006-01-02 15:04")
}

func renderRuns(w io.Writer, runs []models.HarvestRun) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Finished", "Trigger", "Status", "Found", "New", "Errors", "Issues", "Pages", "Duration", "Run"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			localTime(run.FinishedAt),
			run.TriggerSource,
			run.Status,
			run.TotalFound,
			run.NewItems,
			run.Errors,
			run.FieldIssues,
			run.PagesVisited,
			fmt.Sprintf("%.1fs", run.DurationSeconds),
			run.RunUUID,
		})
	}
	t.Render()
}

func renderAuctions(w io.Writer, auctions []models.Auction, total int64) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Identity", "Category", "Status", "Ends", "Value", "Locality"})
	for _, a := range auctions {
		ends := a.EndDateRaw
		if a.EndDate != nil {
			ends = localTime(*a.EndDate)
		}
		locality := ""
		if a.Asset != nil {
			locality = a.Asset.Locality
		}
		t.AppendRow(table.Row{a.Identity, a.Category, a.Status, ends, utils.FormatEuro(a.AuctionValue), locality})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", total})
	t.Render()
}

func renderAuction(w io.Writer, a *models.Auction) {
	t := newTable(w)
	add := func(label, value string) {
		if value != "" {
			t.AppendRow(table.Row{label, value})
		}
	}
	add("Identity", a.Identity)
	add("Category", a.Category)
	add("Status", a.Status)
	add("Authority", a.Authority)
	add("Case reference", a.CaseReference)
	add("Description", a.Description)
	add("Auction type", a.AuctionType)
	add("Start", utils.FormatSpanishDatePtr(a.StartDate))
	add("End", utils.FormatSpanishDatePtr(a.EndDate))
	money := func(label string, v *float64) {
		if v != nil {
			add(label, utils.FormatEuro(v))
		}
	}
	money("Auction value", a.AuctionValue)
	money("Appraisal", a.Appraisal)
	money("Minimum bid", a.MinimumBid)
	money("Deposit", a.DepositAmount)
	money("Claimed amount", a.ClaimedAmount)
	add("BOE announcement", a.Announcement)
	if a.Asset != nil {
		add("Asset", a.Asset.Category)
		add("Address", a.Asset.Address)
		add("Locality", a.Asset.Locality)
		add("Province", a.Asset.Province)
		add("Cadastral reference", a.Asset.CadastralRef)
		add("Possession", a.Asset.PossessionStatus)
		add("Visitable", a.Asset.Visitable)
	}
	add("Detail", a.DetailURL)
	t.Render()
}
