// Command schedule runs the section scheduler offline against a JSON snapshot
// and prints the run result, without touching the database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
	"github.com/yigit/unisphere-scheduler/internal/scheduler"
)

// errIncomplete signals a run that left sections unassigned under -strict
var errIncomplete = errors.New("some sections could not be scheduled")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Error().Err(err).Msg("schedule run failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	filePath := fs.String("file", "", "Path to the snapshot JSON file")
	outPath := fs.String("out", "", "Path to write the result to; standard output when empty")
	backtracks := fs.Int("backtracks", scheduler.DefaultMaxBacktracks, "Maximum backtracks charged to one section")
	timeout := fs.Duration("timeout", 30*time.Second, "Wall-clock limit of the search; 0 disables it")
	strict := fs.Bool("strict", false, "Exit non-zero when any section is left unassigned")
	verbose := fs.Bool("v", false, "Log search progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *filePath == "" {
		return errors.New("an input file must be specified with -file")
	}
	if *backtracks < 0 {
		return fmt.Errorf("backtracks must not be negative: %d", *backtracks)
	}

	level := logger.WarnLevel
	if *verbose {
		level = logger.DebugLevel
	}
	logger.Configure(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	problem, err := scheduler.InputFromJSON(*filePath)
	if err != nil {
		return err
	}

	engine := scheduler.NewEngine(scheduler.Options{MaxBacktracks: *backtracks, Timeout: *timeout}, logger.Component("scheduler"))
	result, err := engine.Solve(context.Background(), problem)
	if err != nil {
		return err
	}
	if err := scheduler.Verify(problem, result); err != nil {
		return fmt.Errorf("result failed verification: %w", err)
	}

	out := dto.NewRunResult(result)
	out.RunID = uuid.New()
	out.PreviewOnly = true

	w := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if *strict && len(result.Unassigned) > 0 {
		return fmt.Errorf("%w: %d unassigned", errIncomplete, len(result.Unassigned))
	}
	return nil
}
