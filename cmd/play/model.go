package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/ga"
	"flapneat/internal/logging"
)

const (
	frameInterval = 16 * time.Millisecond
	maxSpeed      = 10
)

type tickMsg time.Time

// model drives the shared world and population one frame at a time
type model struct {
	cfg          *config.Config
	championPath string
	log          *slog.Logger

	world   *env.World
	pop     *ga.Population
	display *Display
	last    *ga.Report

	speed  int // ticks per frame, 0 still runs one
	paused bool
	status string
	err    error
}

func newModel(cfg *config.Config, championPath string, log *slog.Logger) (*model, error) {
	m := &model{
		cfg:          cfg,
		championPath: championPath,
		log:          log,
		display:      NewDisplay(cfg.Env),
		speed:        1,
	}
	if err := m.restart(); err != nil {
		return nil, err
	}
	return m, nil
}

// restart builds a fresh world and population from the configured seed
func (m *model) restart() error {
	world := env.NewWorld(m.cfg.Env, m.cfg.Seed)
	pop, err := ga.NewPopulation(m.cfg, world.Spawner(), rand.New(rand.NewSource(m.cfg.Seed)),
		ga.WithLogger(m.log), ga.WithRunID(logging.NewRunID()))
	if err != nil {
		return err
	}
	m.world = world
	m.pop = pop
	m.last = nil
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(v.String())

	case tickMsg:
		if !m.paused {
			if err := m.advance(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "+", "=":
		m.speed = min(m.speed+1, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed-1, 0)
	case "p", " ":
		m.paused = !m.paused
	case "r":
		if err := m.restart(); err != nil {
			m.status = fmt.Sprintf("restart failed: %v", err)
		} else {
			m.status = "restarted"
		}
	case "s":
		if err := m.pop.SaveChampion(m.championPath); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
		} else {
			m.status = "saved champion to " + m.championPath
		}
	case "l":
		if err := m.pop.LoadChampion(m.championPath); err != nil {
			m.status = fmt.Sprintf("load failed: %v", err)
		} else {
			m.world.Reset()
			m.last = nil
			m.status = "loaded champion from " + m.championPath
		}
	}
	return nil
}

// advance runs speed ticks, at least one
func (m *model) advance() error {
	for i := 0; i < max(m.speed, 1); i++ {
		if m.cfg.Eval.TickCap > 0 && m.world.Tick >= m.cfg.Eval.TickCap {
			m.world.KillAll(m.pop, env.DeathTimeout)
		}
		report, err := m.world.Step(m.pop)
		if err != nil {
			return err
		}
		if report != nil {
			m.last = report
		}
	}
	return nil
}

func (m *model) alive() int {
	n := 0
	for _, a := range m.pop.Agents() {
		if a.Alive() {
			n++
		}
	}
	return n
}

func (m *model) View() string {
	if m.err != nil {
		return fmt.Sprintf("simulation stopped: %v\n", m.err)
	}

	header := fmt.Sprintf("Generation %d | Alive %d/%d | Score %d | High score %s | Speed %d",
		m.pop.Generation(), m.alive(), m.pop.Size(), m.world.Score,
		humanize.Comma(int64(m.world.HighScore)), m.speed)
	if m.paused {
		header += " | PAUSED"
	}

	var last string
	if m.last != nil {
		last = fmt.Sprintf("Last generation %d: best %s ticks, mean %.1f, %d species (%d new, %d stale culled)",
			m.last.Generation, humanize.Comma(int64(m.last.BestFitness)), m.last.MeanFitness,
			m.last.Species, m.last.NewSpecies, m.last.StaleCulled)
	}

	return m.display.Render(m.world, m.pop, header, last, m.status)
}
