package engine

import (
	"encoding/json"
	"fmt"
	"iter"
	"sort"
	"strings"
)

// ActionStatus is the outcome of an executed command.
type ActionStatus string

const (
	StatusSuccess     ActionStatus = "success"
	StatusError       ActionStatus = "error"
	StatusInterrupted ActionStatus = "interrupted_by_human"
)

// ActionResult records what happened when a command ran.
type ActionResult struct {
	Status   ActionStatus `json:"status"`
	Output   string       `json:"output,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Error    string       `json:"error,omitempty"`
	Feedback string       `json:"feedback,omitempty"`
}

// Success builds a successful result.
func Success(output string) ActionResult {
	return ActionResult{Status: StatusSuccess, Output: output}
}

// Failure builds an error result.
func Failure(reason string, err error) ActionResult {
	r := ActionResult{Status: StatusError, Reason: reason}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Interrupted builds a result for a command the user declined with feedback.
func Interrupted(feedback string) ActionResult {
	return ActionResult{Status: StatusInterrupted, Feedback: feedback}
}

// Thoughts is the model's free-form reasoning for one cycle.
type Thoughts struct {
	Text      string `json:"text"`
	Reasoning string `json:"reasoning"`
	Plan      string `json:"plan"`
	Criticism string `json:"criticism"`
	Speak     string `json:"speak"`
}

// ActionRecord is one completed cycle. Result is nil if the command never finished.
type ActionRecord struct {
	Thoughts    Thoughts      `json:"thoughts"`
	CommandName string        `json:"command_name"`
	CommandArgs CommandArgs   `json:"command_args"`
	Result      *ActionResult `json:"result,omitempty"`
}

// FormatCall renders the invocation as name(key=value, ...) with keys sorted.
func (r ActionRecord) FormatCall() string {
	keys := make([]string, 0, len(r.CommandArgs))
	for k := range r.CommandArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(r.CommandArgs[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", r.CommandArgs[k]))
		}
		parts = append(parts, k+"="+string(v))
	}
	return r.CommandName + "(" + strings.Join(parts, ", ") + ")"
}

// EpisodicActionHistory is the append-only log of an agent's cycles. It is
// owned by a single agent and is not safe for concurrent mutation.
type EpisodicActionHistory struct {
	records []ActionRecord
}

// NewEpisodicActionHistory creates a history, optionally restored from records.
func NewEpisodicActionHistory(records ...ActionRecord) *EpisodicActionHistory {
	return &EpisodicActionHistory{records: append([]ActionRecord(nil), records...)}
}

// Append adds a completed cycle.
func (h *EpisodicActionHistory) Append(r ActionRecord) {
	h.records = append(h.records, r)
}

func (h *EpisodicActionHistory) Len() int    { return len(h.records) }
func (h *EpisodicActionHistory) Empty() bool { return len(h.records) == 0 }

// Records returns a copy of the log.
func (h *EpisodicActionHistory) Records() []ActionRecord {
	return append([]ActionRecord(nil), h.records...)
}

// Steps lazily formats each step in order. The sequence is single-use: a
// second range over the same value yields nothing.
func (h *EpisodicActionHistory) Steps() iter.Seq[string] {
	consumed := false
	return func(yield func(string) bool) {
		if consumed {
			return
		}
		consumed = true
		for i, r := range h.records {
			if !yield(FormatStep(i+1, r)) {
				return
			}
		}
	}
}

// FormatSummary returns the markdown digest of every step, blocks separated
// by a blank line. An empty history yields "".
func (h *EpisodicActionHistory) FormatSummary() string {
	return joinSteps(h.Steps())
}

func joinSteps(steps iter.Seq[string]) string {
	var parts []string
	for s := range steps {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}

// FormatStep renders record r as step number n.
func FormatStep(n int, r ActionRecord) string {
	status := "did_not_finish"
	if r.Result != nil {
		status = string(r.Result.Status)
	}

	lines := []string{
		fmt.Sprintf("### Step %d: Executed `%s`", n, r.FormatCall()),
		fmt.Sprintf("- **Reasoning:** %q", r.Thoughts.Reasoning),
		fmt.Sprintf("- **Status:** `%s`", status),
	}

	if r.Result != nil {
		switch r.Result.Status {
		case StatusSuccess:
			out := r.Result.Output
			if strings.Contains(out, "\n") {
				out = "\n" + indent(out, "    ")
			}
			lines = append(lines, "- **Output:** "+out)
		case StatusError:
			lines = append(lines, "- **Reason:** "+r.Result.Reason)
			if r.Result.Error != "" {
				lines = append(lines, "- **Error:** "+r.Result.Error)
			}
		case StatusInterrupted:
			lines = append(lines, "- **Feedback:** "+r.Result.Feedback)
		}
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
