package motionplan

import (
	"fmt"
	"sort"
	"time"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

// defaultPeerHorizon is how far ahead peer trajectories are swept into obstacles.
const defaultPeerHorizon = time.Second

// PlanRequest is everything a strategy needs to plan one tick for one robot. It is built fresh
// every tick and not retained.
type PlanRequest struct {
	Start       trajectory.RobotInstant
	Command     MotionCommand
	Constraints RobotConstraints
	// FieldObstacles are real: static obstacles and opponents.
	FieldObstacles spatialmath.ShapeSet
	// VirtualObstacles are rule-imposed: the intent's local obstacles and, for every robot but
	// the goalie, the defense areas.
	VirtualObstacles spatialmath.ShapeSet
	// PeerTrajectories are the latest trajectories of teammates this robot yields to, by shell id.
	PeerTrajectories map[int]trajectory.Trajectory
	ShellID          int
	WorldState       *world.WorldState
	Field            world.FieldDimensions
	Priority         int
	BallSense        bool
	MinDistFromBall  float64
	DribblerSpeed    float64
	Now              time.Time
}

// AllObstacles returns the union of the real and virtual obstacles.
func (req PlanRequest) AllObstacles() spatialmath.ShapeSet {
	return req.FieldObstacles.Union(req.VirtualObstacles)
}

// DynamicObstacles sweeps each peer trajectory over [Now, Now+horizon] into capsules wide enough
// that robot centers stay apart. Peers are visited in shell id order.
func (req PlanRequest) DynamicObstacles(horizon time.Duration) spatialmath.ShapeSet {
	ids := make([]int, 0, len(req.PeerTrajectories))
	for id := range req.PeerTrajectories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out spatialmath.ShapeSet
	const steps = 5
	for _, id := range ids {
		traj := req.PeerTrajectories[id]
		if traj.IsEmpty() {
			continue
		}
		from := req.Now
		if from.Before(traj.Begin()) {
			from = traj.Begin()
		}
		if from.After(traj.End()) {
			// peer has finished and is parked at its last point
			out.Add(spatialmath.Circle{
				Center: traj.Last().Pose.Position,
				Radius: 2 * world.RobotRadius,
				Name:   fmt.Sprintf("peer_%d", id),
			})
			continue
		}
		to := from.Add(horizon)
		if to.After(traj.End()) {
			to = traj.End()
		}
		prev, _ := traj.Evaluate(from)
		for i := 1; i <= steps; i++ {
			at := from.Add(to.Sub(from) * time.Duration(i) / steps)
			next, ok := traj.Evaluate(at)
			if !ok {
				break
			}
			out.Add(spatialmath.Capsule{
				A:      prev.Pose.Position,
				B:      next.Pose.Position,
				Radius: 2 * world.RobotRadius,
				Name:   fmt.Sprintf("peer_%d", id),
			})
			prev = next
		}
	}
	return out
}

// planningObstacles is what path strategies avoid: real, virtual and peer obstacles. Shapes the
// robot already stands in are dropped so it can drive out of them.
func (req PlanRequest) planningObstacles() spatialmath.ShapeSet {
	all := req.AllObstacles()
	all.AddAll(req.DynamicObstacles(defaultPeerHorizon))
	var out spatialmath.ShapeSet
	for _, s := range all.Shapes() {
		if !s.Hit(req.Start.Pose.Position) {
			out.Add(s)
		}
	}
	return out
}

func (req PlanRequest) ball() (world.BallState, bool) {
	if req.WorldState == nil || !req.WorldState.Ball.Visible {
		return world.BallState{}, false
	}
	return req.WorldState.Ball, true
}

// field returns the request's field, or the default field when unset.
func (req PlanRequest) field() world.FieldDimensions {
	if req.Field.Length == 0 || req.Field.Width == 0 {
		return world.DefaultFieldDimensions()
	}
	return req.Field
}
