package persistence

import (
	"time"
)

// PlayerModel represents the players table
type PlayerModel struct {
	ID          int        `gorm:"column:id;primaryKey;autoIncrement"`
	AgentSymbol string     `gorm:"column:agent_symbol;unique;not null"`
	Token       string     `gorm:"column:token;not null"`
	Credits     int64      `gorm:"column:credits;not null;default:0"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
	LastActive  *time.Time `gorm:"column:last_active"`
	Metadata    string     `gorm:"column:metadata;type:text"` // JSON as text
}

func (PlayerModel) TableName() string {
	return "players"
}

// WaypointModel represents the waypoints table. Rows are the trait-bearing
// cache with a TTL; the structure-only graph lives in system_graphs.
type WaypointModel struct {
	WaypointSymbol string    `gorm:"column:waypoint_symbol;primaryKey"`
	SystemSymbol   string    `gorm:"column:system_symbol;not null;index"`
	PlayerID       int       `gorm:"column:player_id;not null"`
	Type           string    `gorm:"column:type;not null"`
	X              float64   `gorm:"column:x;not null"`
	Y              float64   `gorm:"column:y;not null"`
	Traits         string    `gorm:"column:traits;type:text"`            // JSON array as text
	HasFuel        int       `gorm:"column:has_fuel;not null;default:0"` // 0 or 1 (SQLite compatible)
	Orbitals       string    `gorm:"column:orbitals;type:text"`          // JSON array as text
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"`
}

func (WaypointModel) TableName() string {
	return "waypoints"
}

// ContainerModel represents the containers table. One row per container,
// rewritten on every state transition.
type ContainerModel struct {
	ID            string       `gorm:"column:container_id;primaryKey;not null"`
	PlayerID      int          `gorm:"column:player_id;not null;index"`
	Player        *PlayerModel `gorm:"foreignKey:PlayerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Type          string       `gorm:"column:type;not null"`
	Kind          string       `gorm:"column:kind;not null"`
	Status        string       `gorm:"column:status;not null;index"`
	Iteration     int          `gorm:"column:iteration;not null;default:0"`
	RestartCount  int          `gorm:"column:restart_count;not null;default:0"`
	RestartPolicy string       `gorm:"column:restart_policy;not null;default:'no'"`
	Config        string       `gorm:"column:config_json;type:text"` // JSON as text
	CreatedAt     time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;not null"`
}

func (ContainerModel) TableName() string {
	return "containers"
}

// ContainerLogModel represents the container_logs table. Sequence is
// allocated by the repository and is monotonic per container.
type ContainerLogModel struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ContainerID string    `gorm:"column:container_id;not null;index:idx_container_seq,unique"`
	Sequence    int64     `gorm:"column:sequence;not null;index:idx_container_seq,unique"`
	PlayerID    int       `gorm:"column:player_id;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
	Level       string    `gorm:"column:level;not null;default:'INFO'"`
	Message     string    `gorm:"column:message;type:text;not null"`
	Metadata    string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (ContainerLogModel) TableName() string {
	return "container_logs"
}

// ShipAssignmentModel represents the ship_assignments table. Rows are
// history; the partial unique index keeps at most one active row per
// (player, ship).
type ShipAssignmentModel struct {
	ID            int64        `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID      int          `gorm:"column:player_id;not null;uniqueIndex:uniq_active_assignment,where:status = 'active'"`
	Player        *PlayerModel `gorm:"foreignKey:PlayerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ShipSymbol    string       `gorm:"column:ship_symbol;not null;uniqueIndex:uniq_active_assignment,where:status = 'active'"`
	ContainerID   string       `gorm:"column:container_id;not null;index"`
	Kind          string       `gorm:"column:kind"`
	Status        string       `gorm:"column:status;not null;default:'active';index"`
	AcquiredAt    time.Time    `gorm:"column:acquired_at;not null"`
	ReleasedAt    *time.Time   `gorm:"column:released_at"`
	ReleaseReason string       `gorm:"column:release_reason"`
}

func (ShipAssignmentModel) TableName() string {
	return "ship_assignments"
}

// SystemGraphModel represents the system_graphs table. Graphs are
// structure-only and never expire.
type SystemGraphModel struct {
	SystemSymbol string    `gorm:"column:system_symbol;primaryKey"`
	GraphData    string    `gorm:"column:graph_json;type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (SystemGraphModel) TableName() string {
	return "system_graphs"
}

// MarketDataModel represents the market_data table: one row per
// (player, waypoint, good)
type MarketDataModel struct {
	ID             int64        `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID       int          `gorm:"column:player_id;not null;uniqueIndex:uniq_market_good"`
	Player         *PlayerModel `gorm:"foreignKey:PlayerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	WaypointSymbol string       `gorm:"column:waypoint_symbol;size:255;not null;uniqueIndex:uniq_market_good"`
	GoodSymbol     string       `gorm:"column:good_symbol;size:100;not null;uniqueIndex:uniq_market_good"`
	Supply         string       `gorm:"column:supply;size:50"`
	Activity       string       `gorm:"column:activity;size:50"`
	PurchasePrice  int          `gorm:"column:purchase_price;not null"`
	SellPrice      int          `gorm:"column:sell_price;not null"`
	TradeVolume    int          `gorm:"column:trade_volume;not null"`
	LastUpdated    time.Time    `gorm:"column:last_updated;index;not null"`
}

func (MarketDataModel) TableName() string {
	return "market_data"
}

// RouteModel represents the routes table. Segments are stored as one JSON
// document; the columns carry what queries filter on.
type RouteModel struct {
	ID                 int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RouteID            string    `gorm:"column:route_id;unique;not null"`
	PlayerID           int       `gorm:"column:player_id;not null;index"`
	ShipSymbol         string    `gorm:"column:ship_symbol;not null;index"`
	Segments           string    `gorm:"column:segments_json;type:text;not null"`
	FuelCapacity       int       `gorm:"column:fuel_capacity;not null"`
	PreDepartureRefuel bool      `gorm:"column:pre_departure_refuel;not null;default:false"`
	CurrentSegment     int       `gorm:"column:current_segment;not null;default:0"`
	Status             string    `gorm:"column:status;not null;index"`
	FailureReason      string    `gorm:"column:failure_reason"`
	CreatedAt          time.Time `gorm:"column:created_at;not null"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null"`
}

func (RouteModel) TableName() string {
	return "routes"
}

// CaptainLogModel represents the captain_logs table
type CaptainLogModel struct {
	LogID         int64     `gorm:"column:log_id;primaryKey;autoIncrement"`
	PlayerID      int       `gorm:"column:player_id;not null;index"`
	Timestamp     time.Time `gorm:"column:timestamp;not null"`
	EntryType     string    `gorm:"column:entry_type;not null"`
	Narrative     string    `gorm:"column:narrative;type:text;not null"`
	EventData     string    `gorm:"column:event_data;type:text"`     // JSON as text
	Tags          string    `gorm:"column:tags;type:text"`           // JSON array as text
	FleetSnapshot string    `gorm:"column:fleet_snapshot;type:text"` // JSON as text
}

func (CaptainLogModel) TableName() string {
	return "captain_logs"
}
