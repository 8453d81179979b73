package ir

// NOTE: These are ledger types, not part of the result table. Attempt IDs
// are content-addressed; ordering within a run uses Seq, never wall time.

// Run describes one invocation of the feedback loop over a task list.
type Run struct {
	ID            string `json:"id"`
	Contract      string `json:"contract"`
	Model         string `json:"model"`
	Prompt        string `json:"prompt"`
	TokenLimit    int    `json:"tokens"`
	Seed          uint64 `json:"seed"`
	StartedAt     string `json:"started_at"` // RFC 3339, display only
	FinishedAt    string `json:"finished_at,omitempty"`
	Status        string `json:"status"`
	Tasks         int    `json:"tasks"`
	EngineVersion string `json:"engine_version"`
}

// Run statuses.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunAborted  = "aborted"
)

// Attempt is one QUERY → PARSE → VALIDATE? pass over a task.
type Attempt struct {
	ID           string  `json:"id"` // AttemptID(RunID, Task, Iteration)
	RunID        string  `json:"run_id"`
	Task         Task    `json:"task"`
	Iteration    int     `json:"iteration"` // 1-based
	Seq          int64   `json:"seq"`       // logical clock
	PromptHash   string  `json:"prompt_hash"`
	Verdict      Verdict `json:"verdict"`
	RawOutput    string  `json:"raw_output"`
	ElapsedMS    int64   `json:"elapsed_ms"`
	ProverRan    bool    `json:"prover_ran"`
	ProverPassed bool    `json:"prover_passed"`
	ArtifactPath string  `json:"artifact_path,omitempty"`
	Accepted     bool    `json:"accepted"`
}
