// Package orchestrator implements the iterative planning/execution loop that
// drives an oracle-guided session: request a structured plan, execute its
// tasks locally, report results back, and pause at operator checkpoints.
package orchestrator

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation entry. Immutable once created; ordering
// within a Conversation is conversational order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Phase is the current stage of work as declared by the oracle. PhaseStopped
// is loop-internal: it overrides any oracle phase when the operator or an
// interrupt ends the session.
type Phase string

const (
	PhasePlanning     Phase = "planning"
	PhaseExecution    Phase = "execution"
	PhaseVerification Phase = "verification"
	PhaseComplete     Phase = "complete"
	PhaseError        Phase = "error"
	PhaseStopped      Phase = "stopped"
)

// Terminal reports whether the phase admits no further iterations.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError || p == PhaseStopped
}

// TaskType discriminates the executable task kinds the oracle may emit.
// The wire names follow the oracle's JSON schema.
type TaskType string

const (
	// TaskPrompt pipes the task content to the external code agent's stdin.
	TaskPrompt TaskType = "claude_code_prompt"
	// TaskFileCreation writes the task content to a file in the working directory.
	TaskFileCreation TaskType = "file_creation"
	// TaskShellCommand runs the task content as a shell command.
	TaskShellCommand TaskType = "command"
)

// Task is one executable step from a plan. Consumed exactly once; the loop
// never retries a task on its own, it re-plans instead.
type Task struct {
	Type        TaskType `json:"type"`
	Content     string   `json:"content"`
	Filename    string   `json:"filename,omitempty"`
	Description string   `json:"description"`
}

// PlanResponse is the oracle's sole contract output.
type PlanResponse struct {
	Phase           Phase  `json:"phase"`
	Tasks           []Task `json:"tasks"`
	Checkpoint      bool   `json:"checkpoint"`
	Summary         string `json:"summary"`
	NextAction      string `json:"next_action"`
	SuccessCriteria string `json:"success_criteria"`
}

// TaskOutcome is the structured result of executing one task. Output and
// Error are truncated at capture time; never mutated after creation.
type TaskOutcome struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// TaskResult pairs an outcome with the task it came from, in the shape
// reported back to the oracle.
type TaskResult struct {
	Task    string   `json:"task"`
	Type    TaskType `json:"type"`
	Success bool     `json:"success"`
	Output  string   `json:"output"`
	Error   string   `json:"error,omitempty"`
}

// TaskResultSet is the ordered collection of results from one iteration.
// Order matches the plan's task order.
type TaskResultSet []TaskResult

// SuccessCount returns how many tasks in the set succeeded.
func (s TaskResultSet) SuccessCount() int {
	n := 0
	for _, r := range s {
		if r.Success {
			n++
		}
	}
	return n
}

// StopReason classifies why a session ended. Distinct from Phase: a session
// that hits the iteration cap is incomplete, not failed.
type StopReason string

const (
	ReasonComplete      StopReason = "complete"
	ReasonError         StopReason = "error"
	ReasonStopped       StopReason = "stopped"
	ReasonMaxIterations StopReason = "max_iterations"
)

// Summary is the final record of one session, persisted on every exit path.
type Summary struct {
	SessionID  string     `json:"session_id"`
	Model      string     `json:"model"`
	Phase      Phase      `json:"phase"`
	Reason     StopReason `json:"reason"`
	Iterations int        `json:"iterations"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    time.Time  `json:"ended_at"`
	// Conversation is the full ordered message history.
	Conversation []Message `json:"conversation"`
	// Artifacts lists files created during the session (the file manifest).
	Artifacts []string `json:"artifacts,omitempty"`
}
