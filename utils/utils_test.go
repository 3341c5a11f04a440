package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"1.234,56 €", ptr(1234.56)},
		{"  250.000,00 €  ", ptr(250000)},
		{"12,5", ptr(12.5)},
		{"1.000", ptr(1000)},
		{"€ 3.500,10", ptr(3500.10)},
		{"", nil},
		{"   ", nil},
		{"N/A", nil},
		{"Sin valor", nil},
		{"NaN", nil},
	}
	for _, tc := range cases {
		got := ParseMoney(tc.in)
		if tc.want == nil {
			require.Nil(t, got, "input %q", tc.in)
			continue
		}
		require.NotNil(t, got, "input %q", tc.in)
		require.InDelta(t, *tc.want, *got, 0.0001, "input %q", tc.in)
	}
}

func TestFormatEuro(t *testing.T) {
	require.Equal(t, "1.234,56 €", FormatEuro(ptr(1234.56)))
	require.Equal(t, "250.000,00 €", FormatEuro(ptr(250000)))
	require.Equal(t, "12,00 €", FormatEuro(ptr(12)))
	require.Equal(t, "N/A", FormatEuro(nil))
}

func TestClassify(t *testing.T) {
	require.Equal(t, "Judicial", Classify("SUB-JA-2024-001122"))
	require.Equal(t, "Judicial-Vehicles", Classify("SUB-JV-2023-77"))
	require.Equal(t, "Tax-Authority", Classify("SUB-AT-2024-24R2886001140"))
	require.Equal(t, "ZZ", Classify("SUB-ZZ-2024-1"))
	require.Equal(t, CategoryUnknownLabel, Classify("not an identity"))

	c := ClassifyIdentity("SUB-ZZ-2024-1")
	require.False(t, c.Known)
	require.Equal(t, "ZZ", c.Code)
}

func TestRegisterCategory(t *testing.T) {
	RegisterCategory("QX", "Experimental")
	t.Cleanup(func() {
		categoryMu.Lock()
		delete(categoryCodes, "QX")
		categoryMu.Unlock()
	})
	require.Equal(t, "Experimental", Classify("SUB-QX-2025-9"))
}

func TestParseAuctionDate(t *testing.T) {
	got := ParseAuctionDate("19-04-2024 18:00:00 CET  (ISO: 2024-04-19T18:00:00+02:00)")
	require.NotNil(t, got)
	require.True(t, got.Equal(time.Date(2024, 4, 19, 16, 0, 0, 0, time.UTC)))

	got = ParseAuctionDate("09/05/2024 10:30:00 CEST")
	require.NotNil(t, got)
	require.Equal(t, 2024, got.Year())
	require.Equal(t, time.May, got.Month())
	require.Equal(t, 9, got.Day())
	require.Equal(t, 10, got.Hour())

	got = ParseAuctionDate("01-02-2025")
	require.NotNil(t, got)
	require.Equal(t, time.February, got.Month())

	require.Nil(t, ParseAuctionDate(""))
	require.Nil(t, ParseAuctionDate("pendiente"))
}

func TestParseLotsFlag(t *testing.T) {
	require.Nil(t, ParseLotsFlag("", false))
	require.Equal(t, 0, *ParseLotsFlag("Sin lotes", true))
	require.Equal(t, 1, *ParseLotsFlag("3", true))
	require.Equal(t, 1, *ParseLotsFlag("", true))
}

func TestParseRecipients(t *testing.T) {
	valid, rejected := ParseRecipients("a@example.com; bad-address , b@example.org,")
	require.Equal(t, []string{"a@example.com", "b@example.org"}, valid)
	require.Equal(t, []string{"bad-address"}, rejected)
}

func TestFormatSpanishDate(t *testing.T) {
	ts := time.Date(2024, 4, 19, 16, 0, 0, 0, time.UTC)
	require.Equal(t, "19 de abril de 2024, 18:00", FormatSpanishDate(ts))
	require.Equal(t, "", FormatSpanishDatePtr(nil))
}

func ptr(f float64) *float64 { return &f }
