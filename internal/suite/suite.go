package suite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessthink/internal/board"
	"github.com/hailam/chessthink/internal/engine"
)

// unlimited is the clock handed to the engine; the allowance comes from
// the configured move time instead.
const unlimited = 24 * time.Hour

// Config controls a suite run.
type Config struct {
	Workers  int           // concurrent engines, default 1
	MoveTime time.Duration // thinking time per position, default 1s
	Options  engine.Options
	Logger   zerolog.Logger
	Recorder engine.Recorder // optional, shared by all workers so it must be safe for concurrent use
}

// Result is the outcome of one case.
type Result struct {
	Case    Case
	Move    string
	Score   int
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
	Solved  bool
}

// Summary aggregates a run.
type Summary struct {
	RunID   uuid.UUID
	Total   int
	Solved  int
	Nodes   uint64
	Elapsed time.Duration
}

// Run searches every case and returns the results in input order. Each
// worker owns its own engine, so no search state is shared between
// goroutines. The transposition table is cleared between cases.
func Run(ctx context.Context, cases []Case, cfg Config) ([]Result, Summary, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MoveTime <= 0 {
		cfg.MoveTime = time.Second
	}

	summary := Summary{RunID: uuid.New(), Total: len(cases)}
	log := cfg.Logger.With().Str("run", summary.RunID.String()).Logger()
	start := time.Now()

	opts := cfg.Options
	opts.Logger = log
	opts.MaxMoveTime = cfg.MoveTime
	opts.MoveTimeFraction = 1

	results := make([]Result, len(cases))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range cases {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			eng := engine.NewEngine(opts)
			eng.Recorder = cfg.Recorder
			for i := range jobs {
				res, err := solve(ctx, eng, cases[i])
				if err != nil {
					return err
				}
				results[i] = res
				log.Info().
					Str("id", res.Case.ID).
					Str("move", res.Move).
					Int("score", res.Score).
					Int("depth", res.Depth).
					Bool("solved", res.Solved).
					Msg("position searched")
				eng.Clear()
			}
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, summary, err
	}

	for _, r := range results {
		if r.Solved {
			summary.Solved++
		}
		summary.Nodes += r.Nodes
	}
	summary.Elapsed = time.Since(start)

	log.Info().
		Int("solved", summary.Solved).
		Int("total", summary.Total).
		Uint64("nodes", summary.Nodes).
		Dur("elapsed", summary.Elapsed).
		Msg("suite finished")

	return results, summary, nil
}

func solve(ctx context.Context, eng *engine.Engine, c Case) (Result, error) {
	pos, err := board.ParseFEN(c.FEN)
	if err != nil {
		return Result{}, errors.Wrapf(err, "case %s", c.ID)
	}

	var last engine.SearchInfo
	eng.OnInfo = func(info engine.SearchInfo) { last = info }

	clock := engine.NewClock(unlimited)
	move := eng.Think(ctx, pos, clock)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	uci := move.String()
	return Result{
		Case:    c,
		Move:    uci,
		Score:   last.Score,
		Depth:   last.Depth,
		Nodes:   last.Nodes + last.QNodes,
		Elapsed: clock.ElapsedThisTurn(),
		Solved:  c.Accepts(uci),
	}, nil
}
