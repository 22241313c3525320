package application

import "github.com/bnema/cyclerun/internal/domain"

// Observer receives executor and scheduler events, typically for metrics.
type Observer interface {
	ObserveAttempt(id domain.AccountID, err error)
	ObserveResult(result domain.JobResult)
	ObserveCycle(report CycleReport)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(domain.AccountID, error) {}
func (nopObserver) ObserveResult(domain.JobResult)         {}
func (nopObserver) ObserveCycle(CycleReport)               {}
