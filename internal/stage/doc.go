// Package stage provides actor collaborators: Virtual keeps the actor as
// plain geometry, and Terminal additionally draws it on a tcell screen.
package stage
