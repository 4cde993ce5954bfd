package shared

// OperationContext links work done by low-level commands back to the
// container that initiated it. Handlers use it to tag log records and
// persisted rows with the owning container.
type OperationContext struct {
	// ContainerID identifies the container running the operation
	ContainerID string

	// OperationType is the container's workflow kind, e.g. "navigate" or
	// "scout_tour"
	OperationType string
}

// NewOperationContext creates a context; both fields are required
func NewOperationContext(containerID, operationType string) *OperationContext {
	if containerID == "" || operationType == "" {
		return nil
	}
	return &OperationContext{
		ContainerID:   containerID,
		OperationType: operationType,
	}
}

// IsValid reports whether the context carries both required fields
func (c *OperationContext) IsValid() bool {
	return c != nil && c.ContainerID != "" && c.OperationType != ""
}

func (c *OperationContext) String() string {
	if c == nil {
		return "<no context>"
	}
	return c.OperationType + ":" + c.ContainerID
}
