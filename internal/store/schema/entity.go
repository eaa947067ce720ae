package schema

import (
	"time"

	"github.com/feral-file/ff-chain-events/internal/domain"
)

// Entity represents the entities table - domain objects referenced by events (e.g. proposals)
type Entity struct {
	ID      uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Network domain.Network `gorm:"column:network;not null;type:text;uniqueIndex:idx_entities_natural_key"`
	Type    string         `gorm:"column:type;not null;type:text;uniqueIndex:idx_entities_natural_key"`
	TypeID  string         `gorm:"column:type_id;not null;type:text;uniqueIndex:idx_entities_natural_key"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Entity model
func (Entity) TableName() string {
	return "entities"
}
