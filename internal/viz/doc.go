// Package viz renders simulations in the terminal.
//
// [LiveModel] is a Bubble Tea program that integrates the model while it
// draws sparklines of the main population groups. Parameters can be tuned
// while it runs; each change rebuilds the system from a copy of the
// parameter set.
//
// # Key Bindings
//
//	Space     - Pause/Resume simulation
//	R         - Reset state and parameters
//	Tab       - Select next parameter
//	Up/Down   - Scale selected parameter by ±5%
//	?         - Show help overlay
//	Q         - Quit
package viz
