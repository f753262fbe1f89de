package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbook/internal/config"
	"courtbook/internal/models"
)

func TestBackupService_PerformBackup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	insert(t, db, newReservation("r1", "c1", models.StatusConfirmed, at(3, 14, 0), at(3, 15, 0)))

	dir := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, Path: dir, RetentionDays: 7}, &logger)
	svc.now = func() time.Time { return testNow }

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup_20250602_090000.db"), path)

	restored, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.FindReservationByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CourtID)

	_, err = svc.PerformBackup(ctx)
	assert.Error(t, err, "same timestamp must not overwrite")
}

func TestBackupService_CleanupOldBackups(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(nil, config.BackupConfig{Path: dir, RetentionDays: 7}, &logger)
	svc.now = func() time.Time { return testNow }

	old := filepath.Join(dir, "backup_20250501_000000.db")
	fresh := filepath.Join(dir, "backup_20250601_000000.db")
	foreign := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, foreign} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	stale := testNow.AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, stale, stale))
	require.NoError(t, os.Chtimes(foreign, stale, stale))
	require.NoError(t, os.Chtimes(fresh, testNow, testNow))

	assert.Equal(t, 1, svc.CleanupOldBackups())
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)

	svc.config.RetentionDays = 0
	assert.Zero(t, svc.CleanupOldBackups())
}
