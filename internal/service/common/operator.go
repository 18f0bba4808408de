//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Operator identifies who is driving the motor, for log context.
type Operator struct {
	// Hostname is the machine the panel runs on.
	Hostname string
	// Username is the system user running the panel.
	Username string
}

// String renders the operator as user@host.
func (o Operator) String() string {
	return o.Username + "@" + o.Hostname
}

// DetectOperator gathers host and user information.
func DetectOperator() (Operator, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Operator{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Operator{}, fmt.Errorf("current user: %w", err)
	}

	return Operator{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
