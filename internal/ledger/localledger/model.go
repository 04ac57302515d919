package localledger

// DebateObject is the persisted current-state row for one debate.
type DebateObject struct {
	ObjectID          string `gorm:"column:object_id;primaryKey;size:190;not null"`
	Topic             string `gorm:"column:topic;size:100;not null"`
	Description       string `gorm:"column:description;size:500;not null"`
	SideACount        int64  `gorm:"column:side_a_count;not null;default:0"`
	SideBCount        int64  `gorm:"column:side_b_count;not null;default:0"`
	TotalParticipants int64  `gorm:"column:total_participants;not null;default:0"`
	CreatedAtSeconds  int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DebateObject) TableName() string {
	return "debate_objects"
}

// EventRecord is one append-only ledger event. Sequence is the monotonic
// rowid that fixes the query order.
type EventRecord struct {
	Sequence         int64  `gorm:"column:sequence;primaryKey;autoIncrement"`
	EventType        string `gorm:"column:event_type;size:190;not null;index:idx_events_type_seq,priority:1"`
	DebateID         string `gorm:"column:debate_id;size:190;not null"`
	Participant      string `gorm:"column:participant;size:190;not null;default:''"`
	Side             int8   `gorm:"column:side;not null;default:0"`
	EmittedAtSeconds int64  `gorm:"column:emitted_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (EventRecord) TableName() string {
	return "ledger_events"
}
