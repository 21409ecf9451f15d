// Package skillmgr sequences the alcl pipeline for each top-level command.
//
// Every operation runs its steps in order and stops at the first failure,
// returning a *deploy.Error describing it. Steps that already completed are
// not rolled back: an archive built before a failing remote call stays on
// disk. Subprocesses are run synchronously without a timeout.
package skillmgr
