package policy

import (
	"fmt"
	"strings"
)

// EventType is the pull_request activity type that triggered the run.
type EventType string

const (
	EventOpened      EventType = "opened"
	EventSynchronize EventType = "synchronize"
	EventReopened    EventType = "reopened"
	EventLabeled     EventType = "labeled"
	EventUnlabeled   EventType = "unlabeled"
	EventEdited      EventType = "edited"
)

// EventTypes lists the activity types the check is expected to run on.
func EventTypes() []EventType {
	return []EventType{EventOpened, EventSynchronize, EventReopened, EventLabeled, EventUnlabeled, EventEdited}
}

func ParseEventType(raw string) (EventType, error) {
	v := EventType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range EventTypes() {
		if v == t {
			return t, nil
		}
	}
	names := make([]string, 0, len(EventTypes()))
	for _, t := range EventTypes() {
		names = append(names, string(t))
	}
	return "", fmt.Errorf("unsupported pull request action %q (must be one of: %s)", raw, strings.Join(names, ", "))
}
