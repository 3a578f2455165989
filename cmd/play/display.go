package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/ga"
)

// Terminal cells are roughly twice as tall as they are wide
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

const (
	cellEmpty  = ' '
	cellPipe   = '█'
	cellBird   = '@'
	cellGround = '▀'
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	pipeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	birdStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	groundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	helpText    = "+/- speed  p pause  r restart  s save  l load  q quit"
)

// Display handles terminal rendering
type Display struct {
	cols, rows int
	ground     int // first ground row
	grid       [][]rune
}

// NewDisplay sizes the character grid to the world
func NewDisplay(cfg config.EnvConfig) *Display {
	d := &Display{
		cols:   max(1, int(float64(cfg.Width)/cellWidth)),
		rows:   max(1, int(float64(cfg.Height)/cellHeight)),
		ground: int(float64(cfg.Height-cfg.GroundHeight) / cellHeight),
	}
	d.grid = make([][]rune, d.rows)
	for i := range d.grid {
		d.grid[i] = make([]rune, d.cols)
	}
	return d
}

// Render draws the world and the live birds under a header
func (d *Display) Render(w *env.World, pop *ga.Population, lines ...string) string {
	d.draw(w, pop)

	var b strings.Builder
	b.WriteString(headerStyle.Render(lines[0]))
	b.WriteString("\n")

	var rows strings.Builder
	for i, row := range d.grid {
		rows.WriteString(renderRow(row))
		if i < len(d.grid)-1 {
			rows.WriteString("\n")
		}
	}
	b.WriteString(frameStyle.Render(rows.String()))
	b.WriteString("\n")

	for _, line := range lines[1:] {
		if line != "" {
			b.WriteString(statusStyle.Render(line))
			b.WriteString("\n")
		}
	}
	b.WriteString(statusStyle.Render(helpText))
	return b.String()
}

func (d *Display) draw(w *env.World, pop *ga.Population) {
	for r := range d.grid {
		fill := cellEmpty
		if r >= d.ground {
			fill = cellGround
		}
		for c := range d.grid[r] {
			d.grid[r][c] = fill
		}
	}

	for _, p := range w.Pipes {
		c0, c1 := d.col(p.X), d.col(p.X+p.Width)
		for r := 0; r < d.ground; r++ {
			y := (float64(r) + 0.5) * cellHeight
			if y >= p.GapTop && y <= p.GapBottom {
				continue
			}
			for c := max(c0, 0); c <= min(c1, d.cols-1); c++ {
				d.grid[r][c] = cellPipe
			}
		}
	}

	for _, a := range pop.Agents() {
		bird, ok := a.(*env.Bird)
		if !ok || !bird.Alive() {
			continue
		}
		r := int(bird.Y / cellHeight)
		c := d.col(bird.X)
		if r >= 0 && r < d.rows && c >= 0 && c < d.cols {
			d.grid[r][c] = cellBird
		}
	}
}

func (d *Display) col(x float64) int {
	return int(x / cellWidth)
}

// renderRow styles runs of identical cells in one go
func renderRow(row []rune) string {
	var b strings.Builder
	for i := 0; i < len(row); {
		j := i
		for j < len(row) && row[j] == row[i] {
			j++
		}
		run := string(row[i:j])
		switch row[i] {
		case cellPipe:
			b.WriteString(pipeStyle.Render(run))
		case cellBird:
			b.WriteString(birdStyle.Render(run))
		case cellGround:
			b.WriteString(groundStyle.Render(run))
		default:
			b.WriteString(run)
		}
		i = j
	}
	return b.String()
}
