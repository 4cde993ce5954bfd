package container

import "time"

// LogLevel is the severity of a container log entry
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// LogEntry is one line of a container's log stream. Sequence numbers are
// strictly increasing per container; across containers only timestamps are
// comparable.
type LogEntry struct {
	ContainerID string                 `json:"container_id"`
	PlayerID    int                    `json:"player_id"`
	Sequence    int64                  `json:"sequence"`
	Timestamp   time.Time              `json:"timestamp"`
	Level       LogLevel               `json:"level"`
	Message     string                 `json:"message"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
