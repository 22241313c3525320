package domain

import "time"

type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultSkipped ResultKind = "skipped"
	ResultFailed  ResultKind = "failed"
)

const (
	SkipReasonCooldown    = "cooldown"
	SkipReasonNothingToDo = "nothing to do"
	SkipReasonDisabled    = "disabled"
	SkipReasonAuthExpired = "auth expired"
)

type JobResult struct {
	AccountID      AccountID
	Kind           ResultKind
	Reason         string
	Err            error
	Attempts       int
	StartedAt      time.Time
	FinishedAt     time.Time
	NextEligibleAt time.Time
}

func Succeeded(id AccountID, attempts int) JobResult {
	return JobResult{AccountID: id, Kind: ResultSuccess, Attempts: attempts}
}

func Skipped(id AccountID, reason string) JobResult {
	return JobResult{AccountID: id, Kind: ResultSkipped, Reason: reason}
}

func Failed(id AccountID, attempts int, err error) JobResult {
	return JobResult{AccountID: id, Kind: ResultFailed, Err: err, Attempts: attempts}
}

func (r JobResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// ErrorMessage is empty unless the result carries an error.
func (r JobResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}
