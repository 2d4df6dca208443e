//go:build !tinygo

// Command joyled-sim runs the joystick/LED/display system against simulated
// peripherals, either in a window (arrow keys move the stick, A/B/space are
// the buttons) or headless with a scripted sweep.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"joyled/services/app"
	"joyled/services/hal"
	"joyled/services/sim"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

var (
	boardFile = ""
	headless  = false
	ticks     = 60
	scale     = 4
	biasX     = -30
	biasY     = 25
	verbose   = false
)

func init() {
	pflag.StringVar(&boardFile, "board", boardFile, "YAML file overriding the default board wiring")
	pflag.BoolVar(&headless, "headless", headless, "run a scripted sweep without a window")
	pflag.IntVar(&ticks, "ticks", ticks, "number of control ticks in headless mode")
	pflag.IntVar(&scale, "scale", scale, "window scale factor")
	pflag.IntVar(&biasX, "bias-x", biasX, "resting X reading offset from the ADC midpoint")
	pflag.IntVar(&biasY, "bias-y", biasY, "resting Y reading offset from the ADC midpoint")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "log every sample line")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := sim.LoadBoard(boardFile)
	if err != nil {
		return err
	}

	board, err := hal.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open board %q: %w", cfg.Name, err)
	}
	defer board.Close()

	stick := sim.NewStick(board.Host().ADC, cfg.Joystick, biasX, biasY)
	stick.Release()

	board.Console = sim.NewConsoleWriter(logger)
	var clock *sim.ManualClock
	if headless {
		clock = &sim.ManualClock{}
		board.Clock = clock
	}

	a, err := app.New(board)
	if err != nil {
		return fmt.Errorf("failed to wire app: %w", err)
	}
	logger.Info("calibrated",
		"board", cfg.Name,
		"offset_x", a.Offset.X,
		"offset_y", a.Offset.Y)
	if err := a.Splash(); err != nil {
		logger.Warn("splash failed", tint.Err(err))
	}

	if headless {
		_, err := sim.RunHeadless(ctx, logger, a, stick, clock, ticks, sim.Script(ticks))
		return err
	}
	return runWindow(ctx, logger, a, stick, scale)
}
