package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auction-harvester/models"
)

func TestLoadHarvestSettings_Defaults(t *testing.T) {
	for _, key := range []string{
		"HARVEST_BASE_URL", "HARVEST_LOCALITY", "HARVEST_SCHEDULE", "HARVEST_TIMEZONE",
		"HARVEST_POLITENESS_DELAY", "HARVEST_MAX_PAGES", "HARVEST_REQUEST_TIMEOUT",
		"HARVEST_EXPORT_DIR", "HARVEST_EXPORT_ENABLED", "HARVEST_LOCK_NAME",
		"EMAIL_NOTIFICATIONS", "NOTIFY_EMAIL",
	} {
		t.Setenv(key, "")
	}

	s := LoadHarvestSettings()
	require.Equal(t, DefaultLocality, s.Locality)
	require.Equal(t, DefaultHarvestSchedule, s.Schedule)
	require.Equal(t, DefaultHarvestTimezone, s.Timezone)
	require.Equal(t, 500*time.Millisecond, s.PolitenessDelay)
	require.Equal(t, 200, s.MaxPages)
	require.Equal(t, 30*time.Second, s.RequestTimeout)
	require.True(t, s.ExportEnabled)
	require.False(t, s.NotifyEnabled)
	require.Empty(t, s.NotifyRecipients)
}

func TestLoadHarvestSettings_Overrides(t *testing.T) {
	t.Setenv("HARVEST_LOCALITY", "  Madrid ")
	t.Setenv("HARVEST_POLITENESS_DELAY", "250")
	t.Setenv("HARVEST_REQUEST_TIMEOUT", "5s")
	t.Setenv("HARVEST_MAX_PAGES", "nope")
	t.Setenv("HARVEST_SCHEDULE", "OFF")
	t.Setenv("HARVEST_EXPORT_ENABLED", "false")
	t.Setenv("EMAIL_NOTIFICATIONS", "true")
	t.Setenv("NOTIFY_EMAIL", "a@example.com; not-an-email, b@example.org")

	s := LoadHarvestSettings()
	require.Equal(t, "Madrid", s.Locality)
	require.Equal(t, 250*time.Millisecond, s.PolitenessDelay)
	require.Equal(t, 5*time.Second, s.RequestTimeout)
	require.Equal(t, 200, s.MaxPages)
	require.Empty(t, s.Schedule)
	require.False(t, s.ExportEnabled)
	require.True(t, s.NotifyEnabled)
	require.Equal(t, []string{"a@example.com", "b@example.org"}, s.NotifyRecipients)
}

func TestOpenDB_SQLiteCascade(t *testing.T) {
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test.db")

	db, err := OpenDB(DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	auction := models.Auction{Identity: "SUB-JA-2024-000001"}
	require.NoError(t, db.Create(&auction).Error)
	require.NoError(t, db.Create(&models.Asset{AuctionIdentity: auction.Identity, Locality: "MADRID"}).Error)

	require.NoError(t, db.Delete(&models.Auction{}, "identity = ?", auction.Identity).Error)
	var count int64
	require.NoError(t, db.Model(&models.Asset{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, err := OpenDB("oracle")
	require.Error(t, err)
}
