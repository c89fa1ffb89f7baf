package motionplan

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Registry maps strategy names to planner instances. It is built once and only read afterward.
type Registry struct {
	planners map[string]PathPlanner
}

// NewRegistry returns a registry holding the given planners. Names must be unique.
func NewRegistry(planners ...PathPlanner) (*Registry, error) {
	r := &Registry{planners: make(map[string]PathPlanner, len(planners))}
	for _, p := range planners {
		if p == nil {
			return nil, errors.New("cannot register a nil planner")
		}
		if _, exists := r.planners[p.Name()]; exists {
			return nil, errors.Errorf("planner %q registered twice", p.Name())
		}
		r.planners[p.Name()] = p
	}
	return r, nil
}

// NewDefaultRegistry returns a registry with one fresh instance of every built-in strategy.
func NewDefaultRegistry(cfgs PlannerConfigs) *Registry {
	r, err := NewRegistry(
		NewGoalieIdlePlanner(cfgs.For(GoalieIdleName)),
		NewInterceptPlanner(cfgs.For(InterceptName)),
		NewPathTargetPlanner(cfgs.For(PathTargetName)),
		NewSettlePlanner(cfgs.For(SettleName)),
		NewCollectPlanner(cfgs.For(CollectName)),
		NewLineKickPlanner(cfgs.For(LineKickName)),
		NewPivotPlanner(cfgs.For(PivotName)),
		NewEscapeObstaclesPlanner(cfgs.For(EscapeObstaclesName)),
	)
	if err != nil {
		// built-in names are distinct
		panic(err)
	}
	return r
}

// Resolve returns the planner registered under name.
func (r *Registry) Resolve(name string) (PathPlanner, error) {
	p, ok := r.planners[name]
	if !ok {
		return nil, NewUnknownStrategyError(name)
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := lo.Keys(r.planners)
	sort.Strings(names)
	return names
}
