package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("courts:\n  - id: c1\n    name: Center\n"))
	require.NoError(t, err)

	assert.Equal(t, "data/courtbook.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, p.MinDuration)
	assert.Equal(t, 2*time.Hour, p.MaxDuration)
	assert.Equal(t, 8*time.Hour, p.OpensAt)
	assert.Equal(t, 22*time.Hour, p.ClosesAt)
	assert.Equal(t, 2*time.Hour, p.CancellationCutoff)
	assert.Equal(t, time.Hour, p.CompletionGrace)
	assert.Equal(t, 30, p.MaxAdvanceDays)
	assert.Equal(t, time.UTC, p.Location)
}

func TestParse_BookingSection(t *testing.T) {
	yml := `
booking:
  min_duration_minutes: 60
  max_duration_hours: 3
  business_hours_open: "06:30"
  business_hours_close: "24:00"
  buffer_minutes: 10
  min_advance_minutes: 15
  cancellation_cutoff_hours: 0
  requires_approval: true
  timezone: Europe/Moscow
`
	cfg, err := Parse([]byte(yml))
	require.NoError(t, err)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, p.MinDuration)
	assert.Equal(t, 3*time.Hour, p.MaxDuration)
	assert.Equal(t, 6*time.Hour+30*time.Minute, p.OpensAt)
	assert.Equal(t, 24*time.Hour, p.ClosesAt)
	assert.Equal(t, 10*time.Minute, p.Buffer)
	assert.Equal(t, 15*time.Minute, p.MinAdvance)
	assert.Zero(t, p.CancellationCutoff, "explicit zero is kept")
	assert.True(t, p.RequiresApproval)
	assert.Equal(t, "Europe/Moscow", p.Location.String())
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("COURTBOOK_REDIS_PASSWORD", "s3cret")

	cfg, err := Parse([]byte("redis:\n  address: localhost:6379\n  password: ${COURTBOOK_REDIS_PASSWORD}\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"bad clock", "booking:\n  business_hours_open: '8am'\n"},
		{"close before open", "booking:\n  business_hours_open: '20:00'\n  business_hours_close: '09:00'\n"},
		{"minutes out of range", "booking:\n  business_hours_close: '21:75'\n"},
		{"max below min", "booking:\n  min_duration_minutes: 180\n  max_duration_hours: 2\n"},
		{"unknown timezone", "booking:\n  timezone: Mars/Olympus\n"},
		{"duplicate court", "courts:\n  - id: c1\n  - id: c1\n"},
		{"court without id", "courts:\n  - name: Center\n"},
		{"staff without id", "staff:\n  - name: Ann\n"},
		{"malformed yaml", "courts: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "nested", "courtbook.db")
	yml := "database:\n  path: " + dbPath + "\nstaff:\n  - id: admin\n    name: Admin\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, []string{"admin"}, cfg.StaffIDs())
	assert.DirExists(t, filepath.Join(dir, "nested"))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
