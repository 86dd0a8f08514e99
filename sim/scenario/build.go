package scenario

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/radiosim/radiosim/sim"
	"github.com/radiosim/radiosim/sim/mobility"
	"github.com/radiosim/radiosim/sim/topology"
	"github.com/radiosim/radiosim/sim/trace"
)

// BuildOptions overrides scenario values and injects dependencies.
type BuildOptions struct {
	Seed       *int64
	HorizonUs  *int64
	TraceLevel trace.TraceLevel // empty keeps the scenario's level
	Logger     logrus.FieldLogger
	Recorder   sim.MetricsRecorder
}

// Runtime is a scenario assembled and ready to Run.
type Runtime struct {
	Simulator *sim.Simulator
	Editor    *topology.Editor
	Player    *mobility.Player // nil without a mobility trace
}

// Build validates sc and assembles it into a Runtime.
func Build(sc *Scenario, opts BuildOptions) (*Runtime, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	cfg := sim.Config{
		Horizon:  sc.HorizonUs,
		Seed:     sc.Seed,
		Params:   sc.Params(),
		Gateway:  sim.GatewayBelow(sim.RadioID(sc.Gateway.MaxID)),
		Logger:   log,
		Recorder: opts.Recorder,
		Trace:    trace.TraceConfig{Level: trace.TraceLevel(sc.Trace)},
	}
	if opts.Seed != nil {
		cfg.Seed = *opts.Seed
	}
	if opts.HorizonUs != nil {
		cfg.Horizon = *opts.HorizonUs
	}
	if opts.TraceLevel != "" {
		cfg.Trace.Level = opts.TraceLevel
	}

	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		Simulator: s,
		Editor:    topology.NewEditor(s.Registry(), s.Medium().Links(), log),
	}

	for _, rc := range sc.Radios {
		if err := rt.addRadio(rc.ID, rc.Position, rc.Channel, rc.Powered, rc.BaseRSSI); err != nil {
			return nil, err
		}
	}

	links := append([]sim.Link(nil), sc.Links...)
	if sc.LinksFile != "" {
		fromFile, err := topology.LoadLinks(sc.resolve(sc.LinksFile), log)
		if err != nil {
			return nil, err
		}
		links = append(links, fromFile...)
	}
	for _, l := range links {
		if _, err := rt.Editor.SetLink(l); err != nil {
			return nil, err
		}
	}

	for _, rc := range sc.Radios {
		if rc.Traffic == nil {
			continue
		}
		if err := s.AddTraffic(sim.RadioID(rc.ID), *rc.Traffic); err != nil {
			return nil, err
		}
	}

	if sc.Mobility != nil {
		wrap := true
		if sc.Mobility.Wrap != nil {
			wrap = *sc.Mobility.Wrap
		}
		moves := mobility.LoadTrace(sc.resolve(sc.Mobility.File), log)
		rt.Player = mobility.NewPlayer(moves, wrap, log)
		rt.Player.Attach(s)
	}

	for i := range sc.Events {
		s.Schedule(rt.action(sc.Events[i]))
	}
	return rt, nil
}

// Run executes the simulation and reports links that never found their
// endpoints.
func (rt *Runtime) Run() {
	rt.Simulator.Run()
	rt.Editor.WarnPending()
}

func (rt *Runtime) addRadio(id int, pos sim.Position, channel *int, powered *bool, baseRSSI *float64) error {
	r, err := rt.Editor.AddNodeAt(sim.RadioID(id), pos)
	if err != nil {
		return fmt.Errorf("radio %d: %w", id, err)
	}
	if channel != nil {
		r.SetChannel(*channel)
	}
	if powered != nil {
		r.SetOn(*powered)
	}
	if baseRSSI != nil {
		r.SetBaseRSSI(*baseRSSI)
	}
	return nil
}

func (rt *Runtime) action(e EventSpec) *sim.ActionEvent {
	id := sim.RadioID(e.Radio)
	name := fmt.Sprintf("%s radio %d", e.Kind, e.Radio)
	return sim.NewActionEvent(e.AtUs, name, func(s *sim.Simulator) {
		ok := true
		switch e.Kind {
		case "on":
			ok = s.SetPower(id, true)
		case "off":
			ok = s.SetPower(id, false)
		case "channel":
			ok = s.SetChannel(id, *e.Channel)
		case "base_rssi":
			ok = rt.Editor.SetBaseRSSI(id, *e.BaseRSSI)
		case "remove":
			ok = rt.Editor.RemoveNode(id)
		case "add":
			pos := topology.DefaultPosition
			if e.Position != nil {
				pos = *e.Position
			}
			if err := rt.addRadio(e.Radio, pos, e.Channel, nil, e.BaseRSSI); err != nil {
				s.Logger().Warnf("event %s: %v", name, err)
				return
			}
			if e.Traffic != nil {
				if err := s.AddTraffic(id, *e.Traffic); err != nil {
					s.Logger().Warnf("event %s: %v", name, err)
				}
			}
		case "set_link":
			if _, err := rt.Editor.SetLink(*e.Link); err != nil {
				s.Logger().Warnf("event %s: %v", name, err)
			}
		case "remove_link":
			ok = rt.Editor.RemoveLink(e.Link.Src, e.Link.Dst, e.Link.Channel)
		}
		if !ok {
			s.Logger().Warnf("event %s at %d us: target not found", name, e.AtUs)
		}
	})
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
