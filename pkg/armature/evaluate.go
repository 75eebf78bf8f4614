package armature

import (
	"fmt"
	stdmath "math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"go.uber.org/multierr"
)

// exprFunctions are the helpers scripted driver expressions may call.
var exprFunctions = map[string]govaluate.ExpressionFunction{
	"min": func(args ...interface{}) (interface{}, error) {
		return reduceArgs("min", args, stdmath.Min)
	},
	"max": func(args ...interface{}) (interface{}, error) {
		return reduceArgs("max", args, stdmath.Max)
	},
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs takes 1 argument, got %d", len(args))
		}
		f, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("abs: %v is not a number", args[0])
		}
		return stdmath.Abs(f), nil
	},
}

func reduceArgs(name string, args []interface{}, fn func(a, b float64) float64) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s needs at least 1 argument", name)
	}
	var acc float64
	for i, arg := range args {
		f, ok := arg.(float64)
		if !ok {
			return nil, fmt.Errorf("%s: %v is not a number", name, arg)
		}
		if i == 0 {
			acc = f
			continue
		}
		acc = fn(acc, f)
	}
	return acc, nil
}

// boundDriver is a driver together with the armature that owns it.
type boundDriver struct {
	arm *Armature
	d   *Driver
}

func (b boundDriver) String() string {
	return fmt.Sprintf("%s:%s", b.arm.name, channelKey("", b.d.Path(), b.d.Index))
}

// channelKey normalises an armature/path/index triple so that
// pose.bones["a"].location[1] and (pose.bones["a"].location, 1) match.
func channelKey(arm, path string, index int) string {
	if index < 0 && strings.HasSuffix(path, "]") {
		if open := strings.LastIndexByte(path, '['); open >= 0 {
			if n, err := strconv.Atoi(path[open+1 : len(path)-1]); err == nil {
				path, index = path[:open], n
			}
		}
	}
	return arm + "|" + path + "|" + strconv.Itoa(index)
}

// reads returns the channel keys a driver's variables depend on.
func (b boundDriver) reads() []string {
	var keys []string
	for _, v := range b.d.Variables {
		switch v.Type {
		case VarSingleProp:
			if v.IDType == IDObject {
				keys = append(keys, channelKey(v.ID, v.DataPath, -1))
			}
		case VarTransforms:
			if field, axis, ok := v.TransformType.channelOf(); ok {
				keys = append(keys, channelKey(v.ID, JoinPath(PoseBonePath(v.BoneTarget), field), axis))
			}
		}
	}
	return keys
}

// orderDrivers sorts drivers so that every driver runs after the drivers
// writing the channels it reads (Kahn's algorithm, stable on creation
// order). Drivers caught in a cycle are returned separately.
func orderDrivers(all []boundDriver) (ordered, cyclic []boundDriver) {
	writer := make(map[string]int, len(all))
	for i, b := range all {
		writer[channelKey(b.arm.name, b.d.Path(), b.d.Index)] = i
	}

	indegree := make([]int, len(all))
	dependents := make([][]int, len(all))
	for i, b := range all {
		seen := make(map[int]bool)
		for _, key := range b.reads() {
			w, ok := writer[key]
			if !ok || seen[w] {
				continue
			}
			seen[w] = true
			indegree[i]++
			dependents[w] = append(dependents[w], i)
		}
	}

	var queue []int
	for i := range all {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	done := make([]bool, len(all))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		done[i] = true
		ordered = append(ordered, all[i])
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	for i, b := range all {
		if !done[i] {
			cyclic = append(cyclic, b)
		}
	}
	return ordered, cyclic
}

// EvaluateDrivers runs every driver of every linked armature in dependency
// order and writes the results. Failing drivers are skipped; their errors
// are combined in the returned error.
func (s *Scene) EvaluateDrivers() error {
	var all []boundDriver
	for _, a := range s.arms {
		for _, d := range a.drivers {
			all = append(all, boundDriver{arm: a, d: d})
		}
	}
	ordered, cyclic := orderDrivers(all)

	var errs error
	for _, b := range cyclic {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrDriverCycle, b))
	}
	for _, b := range ordered {
		v, err := s.evaluate(b.d)
		if err == nil {
			err = b.arm.SetScalarAt(b.d.Path(), b.d.Index, v)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("driver %s: %w", b, err))
		}
	}
	return errs
}

// Evaluate computes the value of d without writing it.
func (s *Scene) Evaluate(d *Driver) (float64, error) {
	return s.evaluate(d)
}

func (s *Scene) evaluate(d *Driver) (float64, error) {
	values := make([]float64, len(d.Variables))
	for i, v := range d.Variables {
		f, err := s.variable(v)
		if err != nil {
			return 0, err
		}
		values[i] = f
	}

	switch d.Type {
	case DriverSum:
		var sum float64
		for _, f := range values {
			sum += f
		}
		return sum, nil
	case DriverAverage:
		if len(values) == 0 {
			return 0, nil
		}
		var sum float64
		for _, f := range values {
			sum += f
		}
		return sum / float64(len(values)), nil
	case DriverMin, DriverMax:
		if len(values) == 0 {
			return 0, nil
		}
		acc := values[0]
		for _, f := range values[1:] {
			if d.Type == DriverMin {
				acc = stdmath.Min(acc, f)
			} else {
				acc = stdmath.Max(acc, f)
			}
		}
		return acc, nil
	case DriverScripted:
		return evalExpression(d, values)
	}
	return 0, fmt.Errorf("%w: unknown driver type %q", ErrInvalidDriver, d.Type)
}

func evalExpression(d *Driver, values []float64) (float64, error) {
	if strings.TrimSpace(d.Expression) == "" {
		return 0, fmt.Errorf("%w: scripted driver on %s has no expression", ErrInvalidDriver, d.Path())
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(d.Expression, exprFunctions)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDriver, d.Expression, err)
	}
	params := make(map[string]interface{}, len(values))
	for i, v := range d.Variables {
		params[v.Name] = values[i]
	}
	out, err := expr.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDriver, d.Expression, err)
	}
	switch r := out.(type) {
	case float64:
		return r, nil
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q evaluated to %T", ErrInvalidDriver, d.Expression, out)
}

// variable reads the current value of one driver variable.
func (s *Scene) variable(v *Variable) (float64, error) {
	switch v.Type {
	case VarSingleProp:
		if v.IDType == IDScene {
			f, ok := s.Prop(v.DataPath)
			if !ok {
				return 0, fmt.Errorf("%w: scene property %s", ErrUnknownVariable, v.DataPath)
			}
			return f, nil
		}
		a := s.Armature(v.ID)
		if a == nil {
			return 0, fmt.Errorf("%w: object %s", ErrUnknownVariable, v.ID)
		}
		f, err := a.ScalarAt(v.DataPath, -1)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnknownVariable, err)
		}
		return f, nil

	case VarTransforms:
		a := s.Armature(v.ID)
		if a == nil {
			return 0, fmt.Errorf("%w: object %s", ErrUnknownVariable, v.ID)
		}
		pb, ok := a.Pose().Get(v.BoneTarget)
		if !ok {
			return 0, fmt.Errorf("%w: bone %s in %s", ErrUnknownVariable, v.BoneTarget, v.ID)
		}
		field, axis, ok := v.TransformType.channelOf()
		if !ok {
			return 0, fmt.Errorf("%w: transform type %q", ErrInvalidDriver, v.TransformType)
		}
		vec := *poseVector(pb, field)
		if field == "location" && v.TransformSpace == VarWorldSpace {
			b := a.bones[pb.id]
			vec = a.world.TransformVec3(b.head.Add(vec))
		}
		return float64(vec.Component(axis)), nil
	}
	return 0, fmt.Errorf("%w: variable type %q", ErrInvalidDriver, v.Type)
}
