// Package model implements the squash bug host–pathogen model: a 28
// compartment stage-structured insect population with two transmission
// routes, infected shadow tracks and environmental particle pools.
//
// The package has two parts:
//
//   - [Params]: the 32 named rate constants, in fixed slot order
//   - [Derive]: the right-hand side producing the 28 rates
//
// Derive is a pure function of its inputs. It performs no validation, never
// clamps, and may be evaluated at transiently negative states produced by an
// integrator's trial steps. Detecting non-finite or negative results is the
// job of wrapping layers (see the telemetry package) and of the caller.
//
// # Example
//
//	p, err := model.NewParams(values)
//	ydot := make([]float64, model.NumCompartments)
//	model.Derive(&p, y, ydot)
package model
