package workflow

// Action represents a decision an approver can take on a report
type Action string

const (
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionSendback Action = "SENDBACK"
)

var validActions = map[Action]bool{
	ActionApprove:  true,
	ActionReject:   true,
	ActionSendback: true,
}

// IsValid returns true if the action is known
func (a Action) IsValid() bool {
	return validActions[a]
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
