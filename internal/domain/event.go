package domain

type EventType string

const (
	EventStatus      EventType = "status"
	EventRouting     EventType = "routing"
	EventAgentResult EventType = "agent_result"
	EventError       EventType = "error"
)

// Event is one message of the streaming protocol.
type Event struct {
	Type    EventType    `json:"type"`
	Message string       `json:"message,omitempty"`
	Plan    *RoutingPlan `json:"plan,omitempty"`
	Result  *AgentResult `json:"result,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func StatusEvent(msg string) Event { return Event{Type: EventStatus, Message: msg} }

func RoutingEvent(p RoutingPlan) Event { return Event{Type: EventRouting, Plan: &p} }

func AgentResultEvent(r AgentResult) Event { return Event{Type: EventAgentResult, Result: &r} }

func ErrorEvent(msg string) Event { return Event{Type: EventError, Error: msg} }
