package motionplan

import (
	"sync"

	"github.com/rjsoccer/planner/trajectory"
	"github.com/rjsoccer/planner/world"
)

type collectionEntry struct {
	traj     trajectory.Trajectory
	priority int
	set      bool
}

// TrajectoryCollection holds the last trajectory published for each of our robots together with
// the priority of the intent it served. Each robot writes only its own slot and reads the others,
// so a robot sees its peers' plans from their previous tick at the latest.
type TrajectoryCollection struct {
	mu      sync.RWMutex
	entries [world.NumShells]collectionEntry
}

// NewTrajectoryCollection returns an empty collection.
func NewTrajectoryCollection() *TrajectoryCollection {
	return &TrajectoryCollection{}
}

// Put records robot id's latest trajectory. Out-of-range ids are ignored.
func (tc *TrajectoryCollection) Put(id int, traj trajectory.Trajectory, priority int) {
	if id < 0 || id >= world.NumShells {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries[id] = collectionEntry{traj: traj, priority: priority, set: true}
}

// Get returns robot id's latest trajectory and priority.
func (tc *TrajectoryCollection) Get(id int) (trajectory.Trajectory, int, bool) {
	if id < 0 || id >= world.NumShells {
		return trajectory.Empty(), 0, false
	}
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	e := tc.entries[id]
	return e.traj, e.priority, e.set
}

// Clear forgets robot id's trajectory, e.g. when its goal ends.
func (tc *TrajectoryCollection) Clear(id int) {
	if id < 0 || id >= world.NumShells {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries[id] = collectionEntry{}
}

// PeersFor returns the trajectories robot id must avoid at the given priority: every other robot
// with a higher priority, and those with an equal priority and a lower id.
func (tc *TrajectoryCollection) PeersFor(id, priority int) map[int]trajectory.Trajectory {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	out := map[int]trajectory.Trajectory{}
	for peer, e := range tc.entries {
		if peer == id || !e.set || e.traj.IsEmpty() {
			continue
		}
		if e.priority > priority || (e.priority == priority && peer < id) {
			out[peer] = e.traj
		}
	}
	return out
}
