// Package timeline generates Mermaid gantt markup for a trace.
//
// Every node becomes a task spanning its creation and update time. Tasks
// are grouped into one section per caller, in the order callers first
// appear, and each task carries a click binding so the embedding page can
// open the node's details:
//
//	gantt
//	    dateFormat YYYY-MM-DD HH:mm:ss.SSS
//	    section user
//	    master :n1, 2025-07-29 23:21:45.100, 2025-07-29 23:21:50.250
//	    click n1 call onTaskClick(n1)
//
// Timestamps are normalized by [FormatTimestamp].
package timeline
