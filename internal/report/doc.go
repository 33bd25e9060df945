// Package report consumes loader events: it logs them (Journal), prints
// them for humans (Console), forwards them to a dashboard over socket.io
// (Publisher) and summarizes a loader tree on demand (Snapshot).
//
// All reporters attach to a whole tree and return a function that detaches
// them again.
package report
