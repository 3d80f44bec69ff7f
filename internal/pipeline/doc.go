// Package pipeline drives the per-frame display path.
//
// A camera publishes frames into a Mailbox from its own goroutine. The Loop
// pulls the newest one on every tick and runs it through the stages in order:
//
//  1. Bridge the display buffer into a matrix (imaging.FrameToMatrix).
//  2. Rotate it to the mounting orientation (imaging.Corrector).
//  3. Find the most prominent quadrilateral (detection).
//  4. Draw the outline and corner markers on a copy (overlay).
//  5. Bridge back to a display buffer in the camera's layout and publish.
//
// Stages run synchronously on the loop goroutine; readers only ever see
// complete frames through Latest, Current and Snapshot. A failing tick keeps
// the previous frame on screen and the loop carries on with the next one.
//
// Logging goes through Logger, which discards everything until SetLogger is
// called.
package pipeline
