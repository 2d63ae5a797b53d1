// File: internal/agent/prompt.go
package agent

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// ControlInfo is how a labeled control is shown to the model.
type ControlInfo struct {
	Label string `json:"label"`
	Text  string `json:"control_text"`
	Type  string `json:"control_type"`
}

// WindowInfo is how a candidate application window is shown to the model.
type WindowInfo struct {
	Label   string `json:"label"`
	Title   string `json:"control_text"`
	AppRoot string `json:"app_root"`
}

// HostPromptInput carries everything the Host agent shows the model.
type HostPromptInput struct {
	Request        string
	Windows        []WindowInfo
	RequestHistory []string
	Previous       []schemas.ActionRecord
}

// AppPromptInput carries everything the App agent shows the model.
type AppPromptInput struct {
	Request        string
	Application    string
	Controls       []ControlInfo
	Plan           string
	RequestHistory []string
	Actions        []schemas.ActionRecord
	Context        []string
	Images         [][]byte
}

const hostSystemPrompt = `You are the Host agent of a desktop automation assistant.
Given the user's request, the list of open application windows and a screenshot of the desktop,
choose the window in which the request should be carried out and draft a plan for it.
Respond with a single JSON object and nothing else:
{"Observation": str, "Thought": str, "ControlLabel": str, "ControlText": str, "Status": str, "Plan": [str], "Comment": str}
ControlLabel is the label of the chosen window and ControlText its title.
Status is "CONTINUE" when the request needs work in the chosen window, or "FINISH" when it is already done.`

const appSystemPromptHead = `You are the App agent of a desktop automation assistant working inside %s.
Each step you receive screenshots of the application, with every actionable control marked by a numeric label,
and the list of those controls. Choose exactly one control and one operation that moves the user's request forward.
Respond with a single JSON object and nothing else:
{"Observation": str, "Thought": str, "ControlLabel": str, "ControlText": str, "Function": str, "Args": {}, "Status": str, "Plan": [str], "Comment": str}
Status is one of:
- "CONTINUE": more steps are needed after this one.
- "PENDING": the operation is risky or irreversible and needs the user's confirmation.
- "SCREENSHOT": call "annotation" with the control_labels you want to inspect more closely.
- "FINISH": the request is complete; Function may be empty.
Put "FINISH" in the last line of Plan when no further step is planned.
Available operations:
`

func buildHostRequest(in HostPromptInput, images [][]byte) (schemas.GenerationRequest, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[Request] %s\n", in.Request)
	if err := writeJSONSection(&b, "Open windows", in.Windows); err != nil {
		return schemas.GenerationRequest{}, err
	}
	writeRequestHistory(&b, in.RequestHistory)
	if err := writeActionHistory(&b, "Previous selections", in.Previous); err != nil {
		return schemas.GenerationRequest{}, err
	}
	return schemas.GenerationRequest{
		SystemPrompt: hostSystemPrompt,
		UserPrompt:   b.String(),
		Images:       images,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	}, nil
}

func buildAppRequest(in AppPromptInput, commands []receiver.Command) (schemas.GenerationRequest, error) {
	var sys strings.Builder
	fmt.Fprintf(&sys, appSystemPromptHead, in.Application)
	for _, c := range commands {
		fmt.Fprintf(&sys, "- %s: %s\n", c.Signature(), c.Summary)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Request] %s\n", in.Request)
	if err := writeJSONSection(&b, "Controls", in.Controls); err != nil {
		return schemas.GenerationRequest{}, err
	}
	if in.Plan != "" {
		fmt.Fprintf(&b, "[Previous plan]\n%s\n", in.Plan)
	}
	writeRequestHistory(&b, in.RequestHistory)
	if err := writeActionHistory(&b, "Step history", in.Actions); err != nil {
		return schemas.GenerationRequest{}, err
	}
	if len(in.Context) > 0 {
		b.WriteString("[Retrieved context]\n")
		for _, c := range in.Context {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}

	return schemas.GenerationRequest{
		SystemPrompt: sys.String(),
		UserPrompt:   b.String(),
		Images:       in.Images,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	}, nil
}

func writeJSONSection(b *strings.Builder, title string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s for prompt: %w", strings.ToLower(title), err)
	}
	fmt.Fprintf(b, "[%s] %s\n", title, raw)
	return nil
}

func writeRequestHistory(b *strings.Builder, requests []string) {
	if len(requests) == 0 {
		return
	}
	b.WriteString("[Earlier requests]\n")
	for i, r := range requests {
		fmt.Fprintf(b, "%d. %s\n", i+1, r)
	}
}

// historyEntry is the part of a record the model needs to follow its own progress.
type historyEntry struct {
	Step        int    `json:"step"`
	Agent       string `json:"agent"`
	ControlText string `json:"control_text,omitempty"`
	Action      string `json:"action,omitempty"`
	Status      string `json:"status"`
	Results     any    `json:"results,omitempty"`
}

func writeActionHistory(b *strings.Builder, title string, records []schemas.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	entries := make([]historyEntry, len(records))
	for i, r := range records {
		entries[i] = historyEntry{
			Step:        r.Step,
			Agent:       r.AgentName,
			ControlText: r.ControlText,
			Action:      r.Action,
			Status:      r.Status.String(),
			Results:     r.Results,
		}
	}
	return writeJSONSection(b, title, entries)
}
