package services

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"auction-harvester/config"
	"auction-harvester/models"
	"auction-harvester/utils"
)

// MailSender matches config.SendMail.
type MailSender func(to []string, subject, html string) error

type emailMetaItem struct {
	Label string
	Value string
}

// HarvestNotifier mails the auctions found by a run.
type HarvestNotifier struct {
	recipients []string
	locality   string
	send       MailSender
	now        func() time.Time
}

func NewHarvestNotifier(recipients []string, locality string, send MailSender) *HarvestNotifier {
	if send == nil {
		send = config.SendMail
	}
	return &HarvestNotifier{
		recipients: recipients,
		locality:   locality,
		send:       send,
		now:        time.Now,
	}
}

// Notify sends one message listing the new auctions. It does nothing when
// there are no recipients or no new auctions.
func (n *HarvestNotifier) Notify(summary *RunSummary) error {
	if summary == nil || summary.Stats.NewItems == 0 || len(n.recipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%d nueva(s) subasta(s) en %s", summary.Stats.NewItems, n.locality)
	return n.send(n.recipients, subject, n.buildEmail(subject, summary))
}

func (n *HarvestNotifier) buildEmail(subject string, summary *RunSummary) string {
	meta := []emailMetaItem{
		{Label: "Fecha", Value: utils.FormatSpanishDate(n.now())},
		{Label: "Localidad", Value: n.locality},
		{Label: "Total encontrado", Value: fmt.Sprint(summary.Stats.TotalFound)},
		{Label: "Nuevas subastas", Value: fmt.Sprint(summary.Stats.NewItems)},
	}

	var cards strings.Builder
	for i := range summary.Records {
		cards.WriteString(auctionCard(i+1, &summary.Records[i]))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
<div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
<h1 style="margin:0 0 18px 0;font-size:22px;font-weight:700;color:#111827;line-height:1.35;">%s</h1>
%s
%s
<div style="color:#6b7280;font-size:13px;line-height:1.7;">Mensaje automático del recolector de subastas BOE. No responder a este email.</div>
</div>
</div>
</body>
</html>`, template.HTMLEscapeString(subject), template.HTMLEscapeString(subject), metaTable(meta), cards.String())
}

func metaTable(meta []emailMetaItem) string {
	var b strings.Builder
	b.WriteString(`<table role="presentation" cellpadding="0" cellspacing="0" width="100%" style="border:1px solid #e5e7eb;border-radius:12px;background-color:#f9fafb;margin:0 0 24px 0;"><tbody>`)
	for _, item := range meta {
		if strings.TrimSpace(item.Value) == "" {
			continue
		}
		b.WriteString(fmt.Sprintf(`<tr><td style="padding:10px 16px;font-size:13px;color:#6b7280;width:38%%;">%s</td><td style="padding:10px 16px;font-size:15px;color:#111827;font-weight:600;">%s</td></tr>`,
			template.HTMLEscapeString(item.Label), template.HTMLEscapeString(item.Value)))
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func auctionCard(index int, a *models.Auction) string {
	orNA := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	}

	meta := []emailMetaItem{
		{Label: "Tipo", Value: orNA(a.Category)},
		{Label: "Estado", Value: orNA(a.Status)},
		{Label: "Organismo", Value: orNA(a.Authority)},
		{Label: "Descripción", Value: orNA(a.Description)},
	}
	if a.AuctionValue != nil {
		meta = append(meta, emailMetaItem{Label: "Valor subasta", Value: utils.FormatEuro(a.AuctionValue)})
	}
	if a.EndDate != nil {
		meta = append(meta, emailMetaItem{Label: "Fecha conclusión", Value: utils.FormatSpanishDatePtr(a.EndDate)})
	}
	if a.Asset != nil && a.Asset.Address != "" {
		meta = append(meta, emailMetaItem{Label: "Dirección", Value: strings.TrimRight(a.Asset.Address+", "+a.Asset.Locality, ", ")})
	}

	link := ""
	if a.DetailURL != "" {
		link = fmt.Sprintf(`<p style="margin:0;"><a href="%s" style="color:#2563eb;">Ver detalles completos</a></p>`, template.HTMLEscapeString(a.DetailURL))
	}
	return fmt.Sprintf(`<div style="border:1px solid #e5e7eb;border-radius:8px;padding:16px;margin:0 0 16px 0;">
<h3 style="margin:0 0 12px 0;font-size:17px;color:#111827;">%d. %s</h3>
%s
%s
</div>
`, index, template.HTMLEscapeString(a.Identity), metaTable(meta), link)
}
