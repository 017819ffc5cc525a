// Package viz is the terminal viewer for a running voxel world.
//
// The viewer is a Bubble Tea program drawing the world with half-block
// characters, two voxels per terminal cell:
//
//   - [Model]: live view with a cursor, brush and stats panel
//   - [Picker]: preset selection menu shown before a world is built
//   - [Canvas]: colour canvas rendered through lipgloss
//   - [GIFRecorder]: captures snapshots into an animated GIF
//
// # Key Bindings
//
//	arrows/hjkl - Move cursor
//	HJKL        - Pan the view
//	Space       - Paint the selected material
//	x           - Explode at the cursor
//	Tab         - Next material
//	+/-         - Brush radius
//	p           - Pause/Resume simulation
//	g           - Toggle GIF recording
//	t           - Cycle colour themes
//	?           - Show help overlay
package viz
