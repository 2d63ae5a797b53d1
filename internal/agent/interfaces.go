// internal/agent/interfaces.go
package agent

import "context"

// Retriever supplies prompt context for a request, best matches first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Retrievers groups the optional context sources of an App agent. A nil
// source contributes nothing.
type Retrievers struct {
	Experience    Retriever
	Demonstration Retriever
	OfflineDocs   Retriever
	OnlineSearch  Retriever
}

// Oracle channels.
const (
	ChannelHost       = "HOSTAGENT"
	ChannelApp        = "APPAGENT"
	ChannelExperience = "EXPERIENCE"
)
