package chat

import "fmt"

// InvalidMessageError reports a message that violates the per-role
// structural rules. Position is the message's index within the slice
// being validated, or -1 for a standalone message.
type InvalidMessageError struct {
	Position int
	Role     Role
	Reason   string
}

func (e *InvalidMessageError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("chat: invalid message (role %q): %s", string(e.Role), e.Reason)
	}
	return fmt.Sprintf("chat: invalid message at index %d (role %q): %s", e.Position, string(e.Role), e.Reason)
}
