package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving block cursors
type CursorStore interface {
	// GetBlockCursor retrieves the last processed block number for a network, 0 when none is stored
	GetBlockCursor(ctx context.Context, network domain.Network) (int64, error)
	// SetBlockCursor stores the last processed block number for a network
	SetBlockCursor(ctx context.Context, network domain.Network, blockNumber int64) error
}

type cursorStore struct {
	db *gorm.DB
}

// NewCursorStore creates a new cursor store
func NewCursorStore(db *gorm.DB) CursorStore {
	return &cursorStore{db: db}
}

func cursorKey(network domain.Network) string {
	return fmt.Sprintf("block_cursor:%s", network)
}

// GetBlockCursor retrieves the last processed block number for a network
func (s *cursorStore) GetBlockCursor(ctx context.Context, network domain.Network) (int64, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", cursorKey(network)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseInt(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a network
func (s *cursorStore) SetBlockCursor(ctx context.Context, network domain.Network, blockNumber int64) error {
	if blockNumber < 0 {
		return fmt.Errorf("invalid block cursor %d", blockNumber)
	}

	kv := schema.KeyValueStore{
		Key:   cursorKey(network),
		Value: strconv.FormatInt(blockNumber, 10),
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
