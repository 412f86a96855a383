package sys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/disgoorg/snowflake/v2"
)

var ErrInvalidPrefix = errors.New("prefix must be 1 to 5 characters without spaces")

// PrefixStore keeps per-guild command prefixes in memory and mirrors every
// change to the guild_prefixes table before it becomes visible.
type PrefixStore struct {
	db       *sql.DB
	fallback string

	mu       sync.RWMutex
	prefixes map[snowflake.ID]string
}

func NewPrefixStore(db *sql.DB, fallback string) *PrefixStore {
	return &PrefixStore{
		db:       db,
		fallback: fallback,
		prefixes: make(map[snowflake.ID]string),
	}
}

// Load replaces the in-memory map with what is persisted. Called once at startup.
func (s *PrefixStore) Load(ctx context.Context) error {
	prefixes, err := loadGuildPrefixes(ctx, s.db)
	if err != nil {
		return fmt.Errorf(MsgPrefixLoadFail, err)
	}

	s.mu.Lock()
	s.prefixes = prefixes
	s.mu.Unlock()

	LogDatabase(MsgPrefixLoaded, len(prefixes))
	return nil
}

func (s *PrefixStore) Get(guildID snowflake.ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefixes[guildID]; ok {
		return p
	}
	return s.fallback
}

func (s *PrefixStore) Default() string {
	return s.fallback
}

// Set persists prefix for guildID and only then updates the in-memory view.
func (s *PrefixStore) Set(ctx context.Context, guildID snowflake.ID, prefix string) error {
	if !ValidPrefix(prefix) {
		return ErrInvalidPrefix
	}

	// Writers are serialized so the table and the map never disagree on ordering.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveGuildPrefix(ctx, s.db, guildID, prefix); err != nil {
		return fmt.Errorf(MsgPrefixSaveFail, guildID, err)
	}
	s.prefixes[guildID] = prefix
	return nil
}

func ValidPrefix(prefix string) bool {
	n := len([]rune(prefix))
	if n == 0 || n > MaxPrefixLength {
		return false
	}
	return !strings.ContainsFunc(prefix, unicode.IsSpace)
}
