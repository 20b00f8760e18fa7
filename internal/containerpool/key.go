package containerpool

import (
	"fmt"
	"strings"
)

// ActionKey is the pool key for action execution: distinct (auth, action,
// revision) tuples are disjoint cache partitions.
func ActionKey(authUUID, fqn, revision string) string {
	return fmt.Sprintf("instantiated.%s.%s.%s", authUUID, fqn, revision)
}

// ImageKey is the pool key for raw image invocation, not tied to an action.
func ImageKey(image string, args []string) string {
	return fmt.Sprintf("instantiated.%s%s", image, strings.Join(args, ""))
}
