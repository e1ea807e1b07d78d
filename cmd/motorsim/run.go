package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/milk9111/surfacemotor/prefabs"
	"github.com/milk9111/surfacemotor/sim"
	"github.com/rs/zerolog/log"
)

func runCommand(scenario string, steps int, trace, watch bool, pace time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []sim.Option{sim.WithLogger(log.Logger)}
	if watch {
		w, err := watchPrefabs()
		if err != nil {
			return err
		}
		defer w.Close()
		go func() {
			for err := range w.Errors {
				log.Error().Err(err).Msg("watch")
			}
		}()
		opts = append(opts, sim.WithReloads(w.Events))
	}

	s, err := sim.Load(scenario, opts...)
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = s.Spec().Steps
	}

	if trace {
		fmt.Fprintf(os.Stdout, "%6s %-10s %9s %9s %9s %9s %8s %7s %7s\n", "tick", "body", "x", "y", "vx", "vy", "grounded", "nx", "ny")
	}

	var ticker *time.Ticker
	if watch && pace > 0 {
		ticker = time.NewTicker(pace)
		defer ticker.Stop()
	}

	for i := 0; i < steps; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		samples, err := s.Run(ctx, 1)
		if err != nil {
			return err
		}
		if trace {
			printSamples(os.Stdout, samples)
		}
	}

	for _, evt := range s.Events() {
		log.Info().Uint64("tick", evt.Tick).Stringer("entity", evt.Entity).Str("kind", string(evt.Kind)).Msg("motor event")
	}
	summarize(s)
	return nil
}

func printSamples(out io.Writer, samples []sim.Sample) {
	for _, sample := range samples {
		fmt.Fprintf(out, "%6d %-10s %9.3f %9.3f %9.3f %9.3f %8t %7.3f %7.3f\n",
			sample.Tick, sample.Body,
			sample.Position.X(), sample.Position.Y(),
			sample.Velocity.X(), sample.Velocity.Y(),
			sample.Grounded, sample.Normal.X(), sample.Normal.Y())
	}
}

func summarize(s *sim.Simulation) {
	player, _ := s.Player()
	for _, b := range s.Spec().Bodies {
		trace := s.BodyTrace(b.Name)
		if len(trace) == 0 {
			continue
		}
		last := trace[len(trace)-1]
		log.Info().
			Str("body", b.Name).
			Bool("player", b.Name == player).
			Float64("x", last.Position.X()).
			Float64("y", last.Position.Y()).
			Float64("speed", last.Velocity.Len()).
			Bool("grounded", last.Grounded).
			Msg("final state")
	}
}

// watchPrefabs watches whichever prefab directories exist on disk.
func watchPrefabs() (*prefabs.Watcher, error) {
	var dirs []string
	for _, dir := range []string{"prefabs", filepath.Join("prefabs", "scenarios"), filepath.Join("prefabs", "scripts")} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("watch: no prefabs directory under the working directory")
	}
	log.Info().Strs("dirs", dirs).Msg("watching prefabs")
	return prefabs.NewWatcher(dirs...)
}

func configCommand(prefab string) error {
	data, err := prefabs.Load(prefab)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := prefabs.ParseMotorSpec(prefab, data); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func listCommand() error {
	names, err := fs.Glob(prefabs.PrefabsFS, "scenarios/*.yaml")
	if err != nil {
		return err
	}
	for _, name := range names {
		spec, err := prefabs.LoadScenarioSpec(name)
		if err != nil {
			log.Warn().Err(err).Str("scenario", name).Msg("skipping")
			continue
		}
		fmt.Fprintf(os.Stdout, "%-28s %4d steps  %d bodies\n", name, spec.Steps, len(spec.Bodies))
	}
	return nil
}
