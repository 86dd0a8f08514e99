package mobility

import (
	"github.com/sirupsen/logrus"

	"github.com/radiosim/radiosim/sim"
)

// Player replays a trace, optionally wrapping around forever. Each wrap
// starts a new period at the time the last move of the previous period ran.
type Player struct {
	moves []Move
	wrap  bool
	log   logrus.FieldLogger

	periodStart int64
	current     int
	applied     int
	skipped     int
	periods     int
}

// NewPlayer creates a player over moves, which must be in time order as
// ParseTrace returns them.
func NewPlayer(moves []Move, wrap bool, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{
		moves: moves,
		wrap:  wrap,
		log:   log.WithField("component", "mobility"),
	}
}

// Applied returns how many moves changed a radio position.
func (p *Player) Applied() int { return p.applied }

// Skipped returns how many moves named a radio index that did not exist.
func (p *Player) Skipped() int { return p.skipped }

// Periods returns how many times the trace wrapped.
func (p *Player) Periods() int { return p.periods }

// Attach schedules the first move relative to the simulator's current time.
// An empty trace schedules nothing.
func (p *Player) Attach(s *sim.Simulator) {
	if len(p.moves) == 0 {
		p.log.Info("empty mobility trace; radios stay in place")
		return
	}
	p.current = 0
	p.periodStart = s.Clock()
	p.log.Debugf("periodStart: %d", p.periodStart)
	s.Schedule(&moveEvent{time: p.nextTime(), player: p})
}

func (p *Player) nextTime() int64 {
	return p.moves[p.current].Time + p.periodStart
}

func (p *Player) step(s *sim.Simulator) {
	if s.Clock() < p.nextTime() {
		s.Schedule(&moveEvent{time: p.nextTime(), player: p})
		return
	}

	move := p.moves[p.current]
	if r, ok := s.Registry().At(move.Index); ok {
		pos := r.Position()
		pos.X, pos.Y = move.X, move.Y
		s.Registry().Move(r.ID(), pos)
		p.applied++
	} else {
		p.log.Warnf("%.3fs: no such radio, skipping %s", float64(s.Clock())/1e6, move)
		p.skipped++
	}

	p.current++
	if p.current >= len(p.moves) {
		if !p.wrap {
			return
		}
		if p.moves[len(p.moves)-1].Time <= 0 {
			p.log.Warn("mobility trace has a zero-length period; not wrapping")
			return
		}
		p.log.Infof("New mobility period at %.3fs", float64(s.Clock())/1e6)
		p.periodStart = s.Clock()
		p.current = 0
		p.periods++
	}
	s.Schedule(&moveEvent{time: p.nextTime(), player: p})
}

type moveEvent struct {
	time   int64
	player *Player
}

func (e *moveEvent) Timestamp() int64         { return e.time }
func (e *moveEvent) Type() sim.EventType      { return sim.EventTypeMove }
func (e *moveEvent) Execute(s *sim.Simulator) { e.player.step(s) }
