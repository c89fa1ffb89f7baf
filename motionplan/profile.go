package motionplan

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"github.com/rjsoccer/planner/spatialmath"
	"github.com/rjsoccer/planner/trajectory"
)

// distance resolution used when integrating a velocity profile.
const profileResolution = 0.005

// profileStraightLine time-parameterizes a polyline with a trapezoidal velocity profile: it
// accelerates from the start speed at MaxAccel, cruises at MaxSpeed, and decelerates to endSpeed at
// the final point. The result is sampled every dt. Every instant carries startHeading until the
// caller applies a heading profile.
func profileStraightLine(
	path []r2.Point,
	startHeading float64,
	startVel r2.Point,
	endSpeed float64,
	mot MotionConstraints,
	start time.Time,
	dt time.Duration,
) trajectory.Trajectory {
	if len(path) == 0 {
		return trajectory.Empty()
	}
	cumLengths := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cumLengths[i] = cumLengths[i-1] + spatialmath.Distance(path[i-1], path[i])
	}
	total := cumLengths[len(cumLengths)-1]
	if total < 1e-9 {
		return trajectory.New(trajectory.RobotInstant{
			Pose:  spatialmath.Pose{Position: path[0], Heading: startHeading},
			Stamp: start,
		})
	}

	maxSpeed := math.Max(mot.MaxSpeed, 1e-3)
	accel := math.Max(mot.MaxAccel, 1e-3)
	endSpeed = math.Min(math.Max(endSpeed, 0), maxSpeed)

	// speed already carried along the first segment
	firstDir := path[1].Sub(path[0])
	for i := 2; firstDir.Norm() < 1e-9 && i < len(path); i++ {
		firstDir = path[i].Sub(path[0])
	}
	startSpeed := math.Min(math.Max(startVel.Dot(firstDir.Normalize()), 0), maxSpeed)

	speedAt := func(s float64) float64 {
		accelLimit := math.Sqrt(startSpeed*startSpeed + 2*accel*math.Max(0, s))
		decelLimit := math.Sqrt(endSpeed*endSpeed + 2*accel*math.Max(0, total-s))
		return math.Min(maxSpeed, math.Min(accelLimit, decelLimit))
	}

	n := int(math.Ceil(total/profileResolution)) + 1
	if n < 2 {
		n = 2
	}
	dists := floats.Span(make([]float64, n), 0, total)
	// Span can overshoot total by an ulp
	dists[n-1] = total
	speeds := make([]float64, n)
	times := make([]float64, n)
	for i, s := range dists {
		speeds[i] = speedAt(s)
		if i == 0 {
			continue
		}
		avg := (speeds[i] + speeds[i-1]) / 2
		if avg < 1e-9 {
			avg = 1e-9
		}
		times[i] = times[i-1] + (dists[i]-dists[i-1])/avg
	}
	duration := times[n-1]
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return trajectory.Empty()
	}

	step := dt.Seconds()
	if step <= 0 {
		step = defaultTimeStep.Seconds()
	}
	instants := make([]trajectory.RobotInstant, 0, int(duration/step)+2)
	idx := 0
	emit := func(t float64) {
		for idx < n-2 && times[idx+1] < t {
			idx++
		}
		frac := 0.0
		if span := times[idx+1] - times[idx]; span > 0 {
			frac = math.Min(1, math.Max(0, (t-times[idx])/span))
		}
		s := dists[idx] + (dists[idx+1]-dists[idx])*frac
		speed := speeds[idx] + (speeds[idx+1]-speeds[idx])*frac
		pos, dir := pointAlong(path, cumLengths, s)
		instants = append(instants, trajectory.RobotInstant{
			Pose:     spatialmath.Pose{Position: pos, Heading: startHeading},
			Velocity: spatialmath.Twist{Linear: dir.Mul(speed)},
			Stamp:    start.Add(time.Duration(t * float64(time.Second))),
		})
	}
	for t := 0.0; t < duration; t += step {
		emit(t)
	}
	emit(duration)
	return trajectory.New(instants...)
}

// pointAlong returns the point at arc length s along path and the unit direction of travel there.
func pointAlong(path []r2.Point, cumLengths []float64, s float64) (r2.Point, r2.Point) {
	for i := 1; i < len(path); i++ {
		if s > cumLengths[i] && i < len(path)-1 {
			continue
		}
		segLen := cumLengths[i] - cumLengths[i-1]
		if segLen < 1e-9 {
			continue
		}
		dir := path[i].Sub(path[i-1]).Mul(1 / segLen)
		frac := math.Min(1, math.Max(0, (s-cumLengths[i-1])/segLen))
		return path[i-1].Add(path[i].Sub(path[i-1]).Mul(frac)), dir
	}
	return path[len(path)-1], r2.Point{}
}

// stopTrajectory holds the robot at p: a single instant with zero velocity.
func stopTrajectory(p r2.Point, heading float64, now time.Time) trajectory.Trajectory {
	return trajectory.New(trajectory.RobotInstant{
		Pose:  spatialmath.Pose{Position: p, Heading: heading},
		Stamp: now,
	})
}
