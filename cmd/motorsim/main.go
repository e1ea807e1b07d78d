package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Debug bool `help:"Whether to enable debug logging."`

	Run struct {
		Scenario string        `arg:"" optional:"" name:"scenario" help:"Scenario prefab, e.g. scenarios/flat_run.yaml." default:"scenarios/flat_run.yaml"`
		Steps    int           `help:"Number of fixed steps; 0 uses the scenario's count." default:"0"`
		Trace    bool          `help:"Print every sample." short:"t"`
		Watch    bool          `help:"Reload motor prefabs and input scripts from ./prefabs while running." short:"w"`
		Pace     time.Duration `help:"Wall-clock delay per step when watching." default:"20ms"`
	} `cmd:"" help:"Run a scenario headlessly."`

	Config struct {
		Prefab string `arg:"" optional:"" name:"prefab" help:"Motor prefab to print." default:"motor.yaml"`
	} `cmd:"" help:"Write a motor prefab to standard output."`

	List struct {
	} `cmd:"" help:"List the embedded scenarios."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("motorsim"),
		kong.Description("headless surface-contact motor simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	var err error
	switch ctx.Command() {
	case "run", "run <scenario>":
		err = runCommand(CLI.Run.Scenario, CLI.Run.Steps, CLI.Run.Trace, CLI.Run.Watch, CLI.Run.Pace)
	case "config", "config <prefab>":
		err = configCommand(CLI.Config.Prefab)
	case "list":
		err = listCommand()
	}
	if err != nil {
		writeError(err)
	}
}
