package handler

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siswa-api/internal/dto"
)

func TestStreamSettingsEventsWritesSnapshotThenEvents(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)

	events := make(chan dto.SettingsEvent, 1)
	events <- dto.SettingsEvent{Type: dto.SettingsEventUpdated, Keys: []string{"theme"}}
	close(events)

	snapshot := dto.SettingsEvent{Type: dto.SettingsEventSnapshot}
	require.NoError(t, streamSettingsEvents(context.Background(), writer, snapshot, events, time.Minute))

	output := buf.String()
	snapshotAt := strings.Index(output, "event: settings.snapshot\n")
	updatedAt := strings.Index(output, "event: settings.updated\n")
	require.GreaterOrEqual(t, snapshotAt, 0)
	require.Greater(t, updatedAt, snapshotAt)
	require.Contains(t, output, `"keys":["theme"]`)
}

func TestStreamSettingsEventsStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan dto.SettingsEvent)
	require.NoError(t, streamSettingsEvents(ctx, writer, dto.SettingsEvent{Type: dto.SettingsEventSnapshot}, events, time.Minute))
}

func TestStreamSettingsEventsSendsKeepAlive(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	events := make(chan dto.SettingsEvent)
	require.NoError(t, streamSettingsEvents(ctx, writer, dto.SettingsEvent{Type: dto.SettingsEventSnapshot}, events, 20*time.Millisecond))
	require.Contains(t, buf.String(), ": keep-alive ")
}
