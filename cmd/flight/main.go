package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	rocketsim "github.com/Niconikun/Rocket-Simulator-25-sub000"
	kitlog "github.com/go-kit/kit/log"
)

// This command reads a scenario file and flies it once.

const defaultScenario = "~~unset~~"

var (
	scenario string
	timeout  time.Duration
	verbose  bool
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "flight scenario TOML file")
	flag.DurationVar(&timeout, "timeout", 0, "wall clock limit of the simulation (0 for none)")
	flag.BoolVar(&verbose, "verbose", false, "log the configuration")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	s, err := rocketsim.LoadScenario(scenario)
	if err != nil {
		log.Fatalf("could not load %s: %s", scenario, err)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	if verbose {
		logger.Log("level", "info", "subsys", "conf", "rocket", s.Rocket.Name, "mass(kg)", s.Rocket.InitialMass, "burn(s)", s.Engine.BurnTime(), "propellant(kg)", s.Engine.PropellantMass(), "step(s)", s.Simulation.Step)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := rocketsim.Simulate(ctx, s, logger)
	if len(res.History) == 0 {
		log.Fatalf("flight failed: %s", err)
	}
	apogee := res.History.Apogee()
	fastest := res.History.MaxMach()
	last := res.History.Last()
	logger.Log("level", "notice", "subsys", "summary", "outcome", res.Outcome,
		"apogee(m)", apogee.Altitude(), "apogee(s)", apogee.Time,
		"maxMach", fastest.Mach, "maxMach(s)", fastest.Time,
		"range(m)", last.Range, "lat", last.Geodetic.Latitude, "long", last.Geodetic.Longitude,
		"flight(s)", last.Time)
	if err != nil {
		log.Fatalf("flight aborted: %s", err)
	}
}
