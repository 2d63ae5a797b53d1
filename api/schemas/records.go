package schemas

// AgentKind names which of the two agents produced a record.
type AgentKind string

const (
	AgentHost AgentKind = "HostAgent"
	AgentApp  AgentKind = "AppAgent"
)

// UserStopMarker replaces the execution result when the user declines an action.
const UserStopMarker = "The user decide to stop the task."

// ActionRecord is one entry of the memory ledger. The decision fields are
// copied in so the record alone explains what happened at that step.
type ActionRecord struct {
	Observation  string    `json:"Observation,omitempty"`
	Thought      string    `json:"Thought,omitempty"`
	ControlLabel string    `json:"ControlLabel"`
	ControlText  string    `json:"ControlText"`
	Function     string    `json:"Function"`
	Args         Args      `json:"Args"`
	Status       Status    `json:"Status"`
	Plan         string    `json:"Plan"`
	Comment      string    `json:"Comment,omitempty"`
	Step         int       `json:"Step"`
	AgentStep    int       `json:"AgentStep"`
	Round        int       `json:"Round"`
	Action       string    `json:"Action"`
	Request      string    `json:"Request"`
	Agent        AgentKind `json:"Agent"`
	AgentName    string    `json:"AgentName"`
	Application  string    `json:"Application"`
	Cost         Cost      `json:"Cost"`
	Results      any       `json:"Results"`
}

// NewActionRecord seeds a record from the decision it executes.
func NewActionRecord(d Decision) ActionRecord {
	return ActionRecord{
		Observation:  d.Observation,
		Thought:      d.Thought,
		ControlLabel: d.ControlLabel,
		ControlText:  d.ControlText,
		Function:     d.Function,
		Args:         d.Args,
		Status:       d.Status,
		Plan:         d.Plan,
		Comment:      d.Comment,
		Results:      "",
	}
}
