// Package viz provides a terminal UI for watching and tuning a closed loop
// while it runs.
//
// [Model] is a bubbletea model that steps an [experiment.Experiment] in
// real time and plots the measurement against the setpoint, with the
// controller output below:
//
//	m := viz.NewModel(exp, 20)
//	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
//		return err
//	}
//
// Tab selects a controller parameter, up/down scale it, d flips the
// controller direction, space pauses and r resets.
package viz
