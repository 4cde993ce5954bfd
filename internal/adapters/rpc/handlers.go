package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andrescamacho/fleetd/internal/domain/container"
)

// ContainerView is the wire shape of a container in replies
type ContainerView struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Kind          string                 `json:"kind"`
	Status        string                 `json:"status"`
	PlayerID      int                    `json:"player_id"`
	Iteration     int                    `json:"iteration"`
	MaxIterations int                    `json:"max_iterations"`
	RestartCount  int                    `json:"restart_count"`
	RestartPolicy string                 `json:"restart_policy"`
	Config        map[string]interface{} `json:"config,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	LastError     string                 `json:"last_error,omitempty"`
}

// LogEntryView is the wire shape of one container log line
type LogEntryView struct {
	Sequence  int64                  `json:"sequence"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func viewOf(c *container.Container) *ContainerView {
	view := &ContainerView{
		ID:            c.ID(),
		Type:          string(c.Type()),
		Kind:          c.Type().Kind(),
		Status:        string(c.Status()),
		PlayerID:      c.PlayerID(),
		Iteration:     c.CurrentIteration(),
		MaxIterations: c.MaxIterations(),
		RestartCount:  c.RestartCount(),
		RestartPolicy: string(c.Policy()),
		Config:        c.Config(),
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
	if err := c.LastError(); err != nil {
		view.LastError = err.Error()
	}
	return view
}

func viewOfLogs(entries []*container.LogEntry) []*LogEntryView {
	views := make([]*LogEntryView, len(entries))
	for i, entry := range entries {
		views[i] = &LogEntryView{
			Sequence:  entry.Sequence,
			Timestamp: entry.Timestamp,
			Level:     string(entry.Level),
			Message:   entry.Message,
			Metadata:  entry.Metadata,
		}
	}
	return views
}

type createParams struct {
	ID            string                 `json:"id,omitempty"`
	Type          string                 `json:"type"`
	PlayerID      int                    `json:"player_id"`
	MaxIterations int                    `json:"max_iterations,omitempty"`
	RestartPolicy string                 `json:"restart_policy,omitempty"`
	Config        map[string]interface{} `json:"config,omitempty"`
	AutoStart     bool                   `json:"autostart,omitempty"`
}

func (s *Server) containerCreate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p createParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		return nil, newParamError("type is required")
	}
	if p.PlayerID <= 0 {
		return nil, newParamError("player_id is required")
	}

	entity, err := s.runtime.Create(ctx, CreateSpec{
		ID:            p.ID,
		Type:          container.ContainerType(p.Type),
		PlayerID:      p.PlayerID,
		MaxIterations: p.MaxIterations,
		RestartPolicy: p.RestartPolicy,
		Config:        p.Config,
		AutoStart:     p.AutoStart,
	})
	if err != nil {
		return nil, err
	}
	return viewOf(entity), nil
}

type idParams struct {
	ID string `json:"id"`
}

func (s *Server) containerStart(ctx context.Context, params json.RawMessage) (interface{}, error) {
	id, err := requireID(params)
	if err != nil {
		return nil, err
	}
	entity, err := s.runtime.Start(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(entity), nil
}

func (s *Server) containerStop(ctx context.Context, params json.RawMessage) (interface{}, error) {
	id, err := requireID(params)
	if err != nil {
		return nil, err
	}
	entity, err := s.runtime.Stop(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(entity), nil
}

func (s *Server) containerRemove(ctx context.Context, params json.RawMessage) (interface{}, error) {
	id, err := requireID(params)
	if err != nil {
		return nil, err
	}
	if err := s.runtime.Remove(ctx, id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"id": id, "removed": true}, nil
}

type listParams struct {
	PlayerID *int `json:"player_id,omitempty"`
	All      bool `json:"all,omitempty"`
}

func (s *Server) containerList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p listParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	rows, err := s.runtime.List(ctx, p.PlayerID, p.All)
	if err != nil {
		return nil, err
	}
	views := make([]*ContainerView, len(rows))
	for i, row := range rows {
		views[i] = viewOf(row)
	}
	return map[string]interface{}{"containers": views}, nil
}

type inspectParams struct {
	ID      string `json:"id"`
	LogTail int    `json:"log_tail,omitempty"`
}

func (s *Server) containerInspect(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p inspectParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, newParamError("id is required")
	}

	entity, logs, err := s.runtime.Inspect(ctx, p.ID, p.LogTail)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{"container": viewOf(entity)}
	if p.LogTail != 0 {
		result["logs"] = viewOfLogs(logs)
	}
	return result, nil
}

func (s *Server) daemonHealth(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]interface{}{
		"status":            "ok",
		"version":           s.version,
		"active_containers": s.runtime.ActiveCount(),
	}, nil
}

func requireID(params json.RawMessage) (string, error) {
	var p idParams
	if err := unmarshalParams(params, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", newParamError("id is required")
	}
	return p.ID, nil
}

func unmarshalParams(params json.RawMessage, into interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, into); err != nil {
		return newParamError("invalid params: %s", err.Error())
	}
	return nil
}
