package pipeline

// Status tags a stage outcome. Concurrency conflicts and guard misses are
// StatusSkipped, never errors; schedulers treat them as "try again later".
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "error"
)

// Result is the three-way outcome of a stage invocation.
type Result struct {
	Status   Status
	Reason   string // set when skipped
	Err      error  // set when failed
	EpochID  string
	EpochSeq int64
	Rows     int64
}

func applied(epochID string, seq, rows int64) Result {
	return Result{Status: StatusApplied, EpochID: epochID, EpochSeq: seq, Rows: rows}
}

func skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}

func (r Result) withEpoch(epochID string, seq int64) Result {
	r.EpochID = epochID
	r.EpochSeq = seq
	return r
}
