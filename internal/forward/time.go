package forward

import (
	"fmt"
	"math"

	"github.com/demes-dev/demes-go/internal/model"
)

// ModelTime maps between forward time (generations since the start of the
// burn-in, increasing toward the present) and the backwards times of the
// underlying model.
type ModelTime struct {
	modelStartTime float64
	modelDuration  float64
	burnin         float64
}

// NewModelTime derives the forward time frame of a graph, prepending
// burnin generations before the model's oldest finite event time.
func NewModelTime(burnin float64, g *model.Graph) (ModelTime, error) {
	if math.IsNaN(burnin) || math.IsInf(burnin, 0) || burnin < 0 {
		return ModelTime{}, fmt.Errorf("%w: invalid burn-in length %v", model.ErrInvalidModel, burnin)
	}

	start := modelStartTime(g)

	mostRecentEnd := math.Inf(1)
	for _, d := range g.DemeIter() {
		mostRecentEnd = math.Min(mostRecentEnd, d.EndTime())
	}
	duration := start
	if mostRecentEnd > 0 {
		duration = start - mostRecentEnd
	}

	return ModelTime{
		modelStartTime: start,
		modelDuration:  duration,
		burnin:         burnin,
	}, nil
}

// modelStartTime finds the oldest finite time at which anything happens:
// the first epoch boundary of every infinite root, the start of every
// finite deme, finite migration interval endpoints, and pulse times. The
// model starts one generation before that.
func modelStartTime(g *model.Graph) float64 {
	oldest := math.Inf(-1)
	for _, d := range g.DemeIter() {
		if math.IsInf(d.StartTime(), 1) {
			first, _ := d.Epoch(0)
			oldest = math.Max(oldest, first.EndTime())
		} else {
			oldest = math.Max(oldest, d.StartTime())
		}
	}
	for m := range g.MigrationIter() {
		if !math.IsInf(m.StartTime(), 1) {
			oldest = math.Max(oldest, m.StartTime())
			oldest = math.Max(oldest, m.EndTime())
		}
	}
	for p := range g.PulseIter() {
		oldest = math.Max(oldest, p.Time())
	}
	return oldest + 1
}

// Burnin returns the burn-in length in generations.
func (m ModelTime) Burnin() float64 { return m.burnin }

// Duration returns the model's duration in generations, excluding burn-in.
func (m ModelTime) Duration() float64 { return m.modelDuration }

// EndTime returns the total forward length of the model: burn-in plus
// model duration. Offspring quantities exist only for forward times
// strictly before EndTime() - 1.
func (m ModelTime) EndTime() float64 { return m.burnin + m.modelDuration }

// Convert maps a forward time onto the corresponding backwards model
// time. The second return value is false when t is at or past the model
// end.
func (m ModelTime) Convert(t float64) (float64, bool) {
	if t >= m.burnin+m.modelDuration {
		return 0, false
	}
	return m.burnin + m.modelDuration - 1 - t, true
}
