// internal/experience/summarizer.go
package experience

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/agent"
)

const summarySystemPrompt = `You review a completed desktop automation task and turn it into a reusable example for future requests.
Reply with a single JSON object with exactly these keys:
- "example": a short numbered walkthrough of the steps that achieved the request, naming the controls and operations used.
- "tips": advice for similar requests, including mistakes to avoid.`

// loggedStep is the subset of a response log line the summarizer needs.
type loggedStep struct {
	Round       int             `json:"Round"`
	Agent       string          `json:"Agent"`
	Request     string          `json:"Request"`
	Application string          `json:"Application"`
	Thought     string          `json:"Thought"`
	ControlText string          `json:"ControlText"`
	Action      string          `json:"Action"`
	Args        json.RawMessage `json:"Args"`
	Status      string          `json:"Status"`
	Error       string          `json:"Error"`
}

type round struct {
	number      int
	request     string
	application string
	steps       []loggedStep
}

type summary struct {
	Example string `json:"example"`
	Tips    string `json:"tips"`
}

// Summarizer condenses a finished task's response log into experience
// entries, one per round, and saves them to the experience store.
type Summarizer struct {
	logger *zap.Logger
	oracle schemas.Oracle
	store  *Store
	now    func() time.Time
}

func NewSummarizer(logger *zap.Logger, oracle schemas.Oracle, store *Store) *Summarizer {
	return &Summarizer{
		logger: logger.Named("experience"),
		oracle: oracle,
		store:  store,
		now:    time.Now,
	}
}

// Summarize reads responseLog, asks the oracle for one summary per round and
// saves them. requests names each round's request in order and is used when
// a round's records do not carry it. The returned cost covers every oracle
// call made, including those of a failed run.
func (s *Summarizer) Summarize(ctx context.Context, responseLog string, requests []string) (schemas.Cost, error) {
	total := schemas.KnownCost(0)
	rounds, err := readRounds(responseLog)
	if err != nil {
		return total, err
	}
	if len(rounds) == 0 {
		s.logger.Info("No completed actions to summarize.", zap.String("log", responseLog))
		return total, nil
	}

	var entries []Entry
	for _, r := range rounds {
		if r.request == "" && r.number < len(requests) {
			r.request = requests[r.number]
		}
		req := schemas.GenerationRequest{
			SystemPrompt: summarySystemPrompt,
			UserPrompt:   summaryPrompt(r),
			Options:      schemas.GenerationOptions{ForceJSONFormat: true},
		}
		text, cost, err := s.oracle.Send(ctx, req, agent.ChannelExperience, true)
		if err != nil {
			return total, &agent.TransportError{Channel: agent.ChannelExperience, Err: err}
		}
		total = total.Add(cost)

		sum, err := parseSummary(text)
		if err != nil {
			s.logger.Warn("Skipping round with an unreadable summary.", zap.Int("round", r.number), zap.Error(err))
			continue
		}
		entries = append(entries, Entry{
			Request:     r.request,
			Application: r.application,
			Example:     sum.Example,
			Tips:        sum.Tips,
			CreatedAt:   s.now().UTC(),
		})
	}

	if len(entries) == 0 {
		return total, fmt.Errorf("no round of %s could be summarized", responseLog)
	}
	s.store.Add(entries...)
	if err := s.store.Save(); err != nil {
		return total, err
	}
	s.logger.Info("Experience saved.", zap.Int("entries", len(entries)), zap.String("path", s.store.Path()))
	return total, nil
}

// readRounds groups the App agent's successful steps by round.
func readRounds(path string) ([]*round, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open response log: %w", err)
	}
	defer f.Close()

	byNumber := make(map[int]*round)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var step loggedStep
		if err := json.Unmarshal([]byte(line), &step); err != nil {
			return nil, fmt.Errorf("malformed response log line: %w", err)
		}
		if step.Agent != string(schemas.AgentApp) || step.Error != "" {
			continue
		}
		r, ok := byNumber[step.Round]
		if !ok {
			r = &round{number: step.Round}
			byNumber[step.Round] = r
		}
		if r.request == "" {
			r.request = step.Request
		}
		if r.application == "" {
			r.application = step.Application
		}
		r.steps = append(r.steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read response log: %w", err)
	}

	rounds := make([]*round, 0, len(byNumber))
	for _, r := range byNumber {
		rounds = append(rounds, r)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].number < rounds[j].number })
	return rounds, nil
}

func summaryPrompt(r *round) string {
	type stepView struct {
		Thought     string          `json:"thought,omitempty"`
		ControlText string          `json:"control_text,omitempty"`
		Action      string          `json:"action,omitempty"`
		Args        json.RawMessage `json:"args,omitempty"`
		Status      string          `json:"status"`
	}
	views := make([]stepView, len(r.steps))
	for i, st := range r.steps {
		views[i] = stepView{Thought: st.Thought, ControlText: st.ControlText, Action: st.Action, Args: st.Args, Status: st.Status}
	}
	steps, _ := json.Marshal(views)

	var b strings.Builder
	fmt.Fprintf(&b, "[Request] %s\n", r.request)
	if r.application != "" {
		fmt.Fprintf(&b, "[Application] %s\n", r.application)
	}
	fmt.Fprintf(&b, "[Steps] %s", steps)
	return b.String()
}

// parseSummary accepts a bare or fenced JSON object with an example.
func parseSummary(text string) (summary, error) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return summary{}, fmt.Errorf("summary is not a JSON object")
	}
	var sum summary
	if err := json.Unmarshal([]byte(text[start:end+1]), &sum); err != nil {
		return summary{}, fmt.Errorf("summary is not valid JSON: %w", err)
	}
	if strings.TrimSpace(sum.Example) == "" {
		return summary{}, fmt.Errorf("summary has no example")
	}
	return sum, nil
}
