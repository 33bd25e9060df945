// Package loader implements the task orchestration engine: a state machine
// shared by all loaders, the Task leaf that wraps one unit of work, and the
// Combo composite that sequences children.
//
// Every loader moves Waiting -> Loading -> {Finished | Failed | Aborted}. A
// terminal loader only runs again through Start (or a parent combo resetting
// it to Waiting first). State and progress changes are published to
// subscribers; listeners run on whichever goroutine caused the change and
// never under a loader lock.
//
// A Combo walks its children in order on every update pass. Finished task
// outputs are chained as the next child's input, a blocking child holds back
// later siblings until it finishes, a failing child fails the combo and
// aborts its siblings, and an aborted child aborts the combo.
package loader
