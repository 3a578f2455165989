package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapneat/internal/config"
)

func testModel(t *testing.T) *model {
	t.Helper()
	cfg := config.Default()
	cfg.GA.Population = 6
	cfg.Eval.TickCap = 300

	m, err := newModel(cfg, filepath.Join(t.TempDir(), "champion.json"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSpeedIsClamped(t *testing.T) {
	m := testModel(t)

	for i := 0; i < 20; i++ {
		m.Update(key("+"))
	}
	assert.Equal(t, maxSpeed, m.speed)

	for i := 0; i < 20; i++ {
		m.Update(key("-"))
	}
	assert.Zero(t, m.speed)

	// Speed 0 still moves the world
	require.NoError(t, m.advance())
	assert.Equal(t, 1, m.world.Tick)
}

func TestPauseStopsTicks(t *testing.T) {
	m := testModel(t)
	m.Update(key("p"))
	require.True(t, m.paused)

	m.Update(tickMsg{})
	assert.Zero(t, m.world.Tick)

	m.Update(key("p"))
	m.Update(tickMsg{})
	assert.Equal(t, 1, m.world.Tick)
}

func TestSaveAndLoadReportStatus(t *testing.T) {
	m := testModel(t)

	// Nothing to save before the first generation turns over
	m.Update(key("s"))
	assert.Contains(t, m.status, "save failed")

	m.Update(key("l"))
	assert.Contains(t, m.status, "load failed")
	_, err := os.Stat(m.championPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	m.speed = maxSpeed
	for i := 0; i < 100 && m.last == nil; i++ {
		require.NoError(t, m.advance())
	}
	require.NotNil(t, m.last)

	m.Update(key("s"))
	assert.Contains(t, m.status, "saved champion")
	m.Update(key("l"))
	assert.Contains(t, m.status, "loaded champion")
	assert.Equal(t, 1, m.pop.Generation())
	assert.Zero(t, m.world.Tick)
}

func TestRestartAndView(t *testing.T) {
	m := testModel(t)
	require.NoError(t, m.advance())
	before := m.pop

	m.Update(key("r"))
	assert.Equal(t, "restarted", m.status)
	assert.NotSame(t, before, m.pop)

	view := m.View()
	assert.Contains(t, view, "Generation 1")
	assert.Contains(t, view, "Alive 6/6")
	assert.True(t, strings.Contains(view, string(cellBird)))
}

func TestQuit(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
