package errors

import "github.com/storefront-console/storefront/internal/interfaces"

// Recovery commands understood by the UI and CLI.
const (
	CommandRetry   = "retry"
	CommandRelogin = "relogin"
	CommandDismiss = "dismiss"
)

// RecoveryActions returns the actions offered for a classified error.
// Dismiss is always last.
func RecoveryActions(ce *ClassifiedError) []interfaces.Action {
	if ce == nil {
		return nil
	}

	var actions []interfaces.Action
	switch {
	case ce.Retryable():
		actions = append(actions, interfaces.Action{Name: "Retry", Command: CommandRetry, Type: "primary", Key: "r"})
	case ce.Category == CategoryAuth:
		actions = append(actions, interfaces.Action{Name: "Log in again", Command: CommandRelogin, Type: "primary", Key: "l"})
	}
	return append(actions, interfaces.Action{Name: "Dismiss", Command: CommandDismiss, Type: "cancel", Key: "esc"})
}
