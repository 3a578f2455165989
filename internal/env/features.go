package env

import "math"

// Sense measures the distances from the bird's centre to the closest pipe:
// up to the top pipe, ahead to the pipe, down to the bottom pipe, each
// scaled by the vision scale. Without a pipe the previous reading stays.
// Returns the bird's internal buffer.
func (b *Bird) Sense() []float64 {
	p := b.world.ClosestPipe()
	if p == nil {
		return b.vision
	}

	scale := b.world.cfg.VisionScale
	cx := b.X + birdSize/2
	cy := b.Y + birdSize/2

	b.vision[0] = math.Max(0, cy-p.GapTop) / scale
	b.vision[1] = math.Max(0, p.X-cx) / scale
	b.vision[2] = math.Max(0, p.GapBottom-cy) / scale
	return b.vision
}
