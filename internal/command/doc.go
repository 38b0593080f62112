// Package command interprets the line-oriented command protocol.
//
// A Dispatcher tokenizes one line at a time, validates its arguments, and
// either mutates the variable store, calls a collaborator (stage, windows,
// console), or enqueues a motion job on the scheduler. Every outcome is a
// Result carrying an ErrorCode; dispatch never returns a Go error.
//
// Commands are case-insensitive:
//
//	get|print <name>
//	set <name> = <value>
//	delete <name>
//	clear
//	moveto <x> <y> [<speed>] [<side>]
//	<name> = <command>
//	exit
package command
