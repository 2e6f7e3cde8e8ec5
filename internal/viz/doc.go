// Package viz draws layouts in the terminal.
//
// [Canvas] is a braille grid with 2×4 sub-pixels per cell. [DrawLayout]
// fits a set of bodies onto it and draws links as lines. [Model] is a Bubble
// Tea program that steps a simulator live next to an energy chart:
//
//	space  pause or resume
//	n      single step while paused
//	r      restart
//	tab    select a parameter, up/down to tune it
//	+/-    steps per frame
//	?      help
package viz
