package main

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"

	"github.com/rjsoccer/planner/services/robotmove"
	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/world"
)

// feedRateHz matches the vision rate the planners expect.
const feedRateHz = 60

// playbackFeed stands in for vision: it moves each robot along the trajectory it was last sent,
// exactly, and republishes the world with fresh timestamps. There is no physics.
type playbackFeed struct {
	holder    *world.Holder
	sink      *robotmove.LatchedSink
	numRobots int
	clk       clock.Clock
}

// seed places numRobots robots in a line across our half, the goalie in front of the goal, and a
// resting ball at the center mark.
func (f *playbackFeed) seed(goalieID int) {
	field := f.holder.FieldDimensions()
	ws := world.NewWorldState()
	now := f.clk.Now()
	spacing := 4 * world.RobotRadius
	for id := 0; id < f.numRobots; id++ {
		pos := r2.Point{X: (float64(id) - float64(f.numRobots-1)/2) * spacing, Y: field.Length / 4}
		if id == goalieID {
			pos = field.OurGoalCenter().Add(r2.Point{Y: 2 * world.RobotRadius})
		}
		ws.OurRobots[id].Pose = spatialmath.NewPose(pos.X, pos.Y, 0)
		ws.OurRobots[id].Visible = true
		ws.OurRobots[id].Timestamp = now
	}
	ws.Ball = world.BallState{Position: field.CenterPoint(), Visible: true, Timestamp: now}
	ws.LastUpdated = now
	f.holder.SetWorldState(ws)
}

// step advances every robot to where its latest trajectory puts it now.
func (f *playbackFeed) step() {
	now := f.clk.Now()
	ws := f.holder.WorldState().Clone()
	for id := 0; id < f.numRobots && id < len(ws.OurRobots); id++ {
		traj, ok := f.sink.Trajectory(id)
		if !ok || traj.IsEmpty() {
			continue
		}
		inst, ok := traj.Evaluate(now)
		if !ok {
			if now.Before(traj.Begin()) {
				inst = traj.First()
			} else {
				inst = traj.Last()
			}
			inst.Velocity = spatialmath.Twist{}
		}
		ws.OurRobots[id].Pose = inst.Pose
		ws.OurRobots[id].Velocity = inst.Velocity
		ws.OurRobots[id].Timestamp = now
	}
	ws.Ball.Timestamp = now
	ws.LastUpdated = now
	f.holder.SetWorldState(ws)
}

func (f *playbackFeed) run(ctx context.Context) error {
	ticker := f.clk.Ticker(time.Second / feedRateHz)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.step()
		}
	}
}
