// Command chessthink runs the search engine on single positions or on EPD
// test suites, keeping options, decisions and the transposition table in
// the local data store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessthink/internal/board"
	"github.com/hailam/chessthink/internal/engine"
	"github.com/hailam/chessthink/internal/storage"
	"github.com/hailam/chessthink/internal/suite"
)

const usage = `usage: chessthink [-db dir] [-cpuprofile file] [-v] <command> [flags]

commands:
  think   choose a move for one position
  suite   solve the positions of an EPD file`

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(log, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("chessthink")
	}
}

func run(log zerolog.Logger, args []string) error {
	flags := flag.NewFlagSet("chessthink", flag.ContinueOnError)
	dbDir := flags.String("db", "", "database directory (default: platform data dir)")
	cpuprofile := flags.String("cpuprofile", "", "write cpu profile to file")
	verbose := flags.Bool("v", false, "log every completed iteration")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return errors.New(usage)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log = log.Level(level)

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			return errors.Wrap(err, "create cpu profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "start cpu profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("cpu profiling enabled")
	}

	store, err := openStore(*dbDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, cmdArgs := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "think":
		return think(ctx, log, store, cmdArgs)
	case "suite":
		return runSuite(ctx, log, store, cmdArgs)
	}
	return errors.Errorf("unknown command %q\n%s", cmd, usage)
}

func openStore(dir string) (*storage.Store, error) {
	if dir == "" {
		return storage.OpenDefault()
	}
	return storage.Open(dir)
}

// loadOptions reads the saved options and applies a difficulty preset if
// one was named.
func loadOptions(store *storage.Store, difficulty string) (engine.Options, error) {
	opts, err := store.LoadOptions()
	if err != nil {
		return opts, err
	}
	if difficulty != "" {
		d, err := engine.ParseDifficulty(difficulty)
		if err != nil {
			return opts, err
		}
		opts = d.Apply(opts)
	}
	return opts, nil
}

func think(ctx context.Context, log zerolog.Logger, store *storage.Store, args []string) error {
	flags := flag.NewFlagSet("think", flag.ContinueOnError)
	fen := flags.String("fen", board.StartFEN, "position")
	moves := flags.String("moves", "", "space separated UCI moves played from -fen")
	remaining := flags.Duration("remaining", 5*time.Minute, "time left on the mover's clock")
	difficulty := flags.String("difficulty", "", "easy, medium or hard")
	save := flags.Bool("save", false, "store the given difficulty as the default options")
	if err := flags.Parse(args); err != nil {
		return err
	}

	opts, err := loadOptions(store, *difficulty)
	if err != nil {
		return err
	}
	if *save {
		if err := store.SaveOptions(opts); err != nil {
			return err
		}
	}
	opts.Logger = log

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}
	if err := pos.Play(strings.Fields(*moves)...); err != nil {
		return err
	}
	if len(pos.LegalMoves()) == 0 {
		return errors.Errorf("no legal moves in %s", pos.FEN())
	}

	eng := engine.NewEngine(opts)
	eng.Recorder = store
	eng.OnInfo = func(info engine.SearchInfo) {
		fmt.Printf("info depth %d score %s nodes %d time %d hashfull %d pv %s\n",
			info.Depth, engine.ScoreToString(info.Score), info.Nodes+info.QNodes,
			info.Time.Milliseconds(), info.HashFull, info.Move)
	}

	restored, err := store.LoadEngineTable(eng)
	if err != nil {
		log.Warn().Err(err).Msg("transposition table not restored")
	} else if restored > 0 {
		log.Info().Int("entries", restored).Msg("transposition table restored")
	}

	move := eng.Think(ctx, pos, engine.NewClock(*remaining))
	fmt.Printf("bestmove %s\n", move)

	return store.SaveEngineTable(eng)
}

func runSuite(ctx context.Context, log zerolog.Logger, store *storage.Store, args []string) error {
	flags := flag.NewFlagSet("suite", flag.ContinueOnError)
	path := flags.String("epd", "", "EPD file")
	workers := flags.Int("workers", 1, "positions searched in parallel")
	moveTime := flags.Duration("movetime", time.Second, "thinking time per position")
	difficulty := flags.String("difficulty", "", "easy, medium or hard")
	slots := flags.Int("slots", 1<<20, "transposition table slots per worker")
	record := flags.Bool("record", false, "journal every decision")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("suite: -epd is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return errors.Wrap(err, "open epd")
	}
	defer f.Close()

	cases, err := suite.Load(f)
	if err != nil {
		return err
	}

	opts, err := loadOptions(store, *difficulty)
	if err != nil {
		return err
	}
	opts.TableSlots = *slots

	cfg := suite.Config{
		Workers:  *workers,
		MoveTime: *moveTime,
		Options:  opts,
		Logger:   log,
	}
	if *record {
		cfg.Recorder = store
	}

	results, summary, err := suite.Run(ctx, cases, cfg)
	if err != nil {
		return err
	}

	for _, r := range results {
		mark := "-"
		if r.Solved {
			mark = "+"
		}
		fmt.Printf("%s %-20s %-6s %8s depth %d\n", mark, r.Case.ID, r.Move, engine.ScoreToString(r.Score), r.Depth)
	}
	fmt.Printf("solved %d/%d in %s\n", summary.Solved, summary.Total, summary.Elapsed.Round(time.Millisecond))
	return nil
}
