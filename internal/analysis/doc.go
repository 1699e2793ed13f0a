// Package analysis inspects recorded trajectories.
//
//   - [GeneratePhasePortrait] and [PortraitFromStates]: two-compartment
//     trajectories, rendered with [PhasePortraitToASCII]
//   - [PowerSpectrum] and [DominantPeriod]: cycle detection in a single
//     compartment, e.g. the generation period of the adult population
//
// A trajectory recorded with a fixed step can be analysed directly from the
// run store:
//
//	states, times, _ := st.LoadStates(runID)
//	p, _ := analysis.PortraitFromStates(states, model.A, model.AI)
//	fmt.Print(analysis.PhasePortraitToASCII(p, 70, 20))
//	period, ok := analysis.DominantPeriod(analysis.Column(states, model.A), times[1]-times[0])
package analysis
