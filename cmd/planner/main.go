// Package main runs the robot move planner against a kinematic playback of its own output, with a
// goalie agent driving one robot.
package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"github.com/rjsoccer/planner/config"
	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/services/robotmove/builtin"
	"github.com/rjsoccer/planner/strategy"
	"github.com/rjsoccer/planner/world"
)

// statsInterval is how often the goalie's planning statistics are logged.
const statsInterval = 5 * time.Second

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,required,usage=planner config file"`
	Debug      bool   `flag:"debug,usage=log at debug level"`
}

var logger = logging.NewLogger("planner")

func main() {
	goutils.ContextualMain(func(ctx context.Context, args []string, _ *zap.SugaredLogger) error {
		return runPlanner(ctx, args, logger)
	}, logger.AsZap())
}

func runPlanner(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg, err := config.Read(argsParsed.ConfigFile, logger)
	if err != nil {
		return err
	}
	setDebug(logger, argsParsed.Debug || cfg.Debug)

	clk := clock.New()
	holder := world.NewHolder(cfg.FieldDimensions())
	applyLive(holder, cfg)

	sink := robotmove.NewLatchedSink()
	dispatcherCfg := cfg.DispatcherConfig()
	dispatcher, err := builtin.NewDispatcher(dispatcherCfg, holder, sink, sink, logger.Sublogger("robotmove"), builtin.WithClock(clk))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Combine(err, dispatcher.Close(closeCtx))
	}()

	feed := &playbackFeed{holder: holder, sink: sink, numRobots: dispatcherCfg.NumRobots, clk: clk}
	feed.seed(cfg.GoalieID)

	watcher, err := config.NewWatcher(argsParsed.ConfigFile, cfg, config.DefaultWatchDebounce, logger.Sublogger("config"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, watcher.Close())
	}()

	goalie, err := strategy.NewAgent(
		strategy.NewGoalie(cfg.GoalieID, holder.FieldDimensions()),
		holder,
		dispatcher,
		strategy.DefaultAgentRateHz,
		clk,
		logger.Sublogger("goalie"),
	)
	if err != nil {
		return err
	}
	goalie.Start()
	defer goalie.Close()

	logger.Infow("planner running",
		"config", argsParsed.ConfigFile,
		"num_robots", dispatcherCfg.NumRobots,
		"tick_rate_hz", dispatcherCfg.TickRateHz,
		"goalie_id", cfg.GoalieID,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return feed.run(ctx) })
	g.Go(func() error { return watchConfig(ctx, watcher, holder, cfg, logger) })
	g.Go(func() error { return reportStats(ctx, clk, dispatcher, cfg.GoalieID, logger) })
	return g.Wait()
}

// watchConfig applies the parts of each new config that can change while running.
func watchConfig(ctx context.Context, watcher *config.Watcher, holder *world.Holder, current *config.Config, logger logging.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case next := <-watcher.Config():
			diff := config.DiffConfigs(current, next)
			if diff.RestartRequired {
				logger.Warnw("config change needs a restart to take full effect", "diff", diff.String())
			}
			if !diff.LiveEqual {
				applyLive(holder, next)
				logger.Infow("applied config change", "goalie_id", next.GoalieID)
			}
			current = next
		}
	}
}

func applyLive(holder *world.Holder, cfg *config.Config) {
	holder.SetFieldDimensions(cfg.FieldDimensions())
	holder.SetGoalieID(cfg.GoalieID)
	cs := holder.CoachState()
	cs.GlobalOverride = cfg.CoachState().GlobalOverride
	holder.SetCoachState(cs)
}

func setDebug(logger logging.Logger, debug bool) {
	if debug {
		logger.SetLevel(logging.DEBUG)
		return
	}
	logger.SetLevel(logging.INFO)
}

func reportStats(ctx context.Context, clk clock.Clock, svc robotmove.Service, robotID int, logger logging.Logger) error {
	ticker := clk.Ticker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		stats, err := svc.Stats(robotID)
		if err != nil {
			if errors.Is(err, robotmove.ErrDispatcherClosed) {
				return nil
			}
			logger.Debugw("no planning stats yet", "robot", robotID, "error", err)
			continue
		}
		logger.Infow("planning stats",
			"robot", robotID,
			"ticks", stats.Ticks,
			"fallbacks", stats.Fallbacks,
			"latency_mean_ms", stats.Latency.Mean,
			"latency_p95_ms", stats.Latency.P95,
		)
	}
}
