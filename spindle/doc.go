// Package spindle constructs the spindle_v3 graph: it reads the pipeline
// variables, expands the report definitions, splits each partner's
// advertisers into SDF download groups and wires the operators together.
//
//	vars, err := spindle.LoadVariables(ctx, store)
//	d, err := spindle.Build(vars, deps, spindle.Options{})
//	result, err := engine.Run(ctx, d, dag.NewState())
package spindle
