// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_callcontext

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rapidaai/intake-relay/pkg/commons"
)

type memoryEntry struct {
	cc    *CallContext
	timer *time.Timer
}

type memoryStore struct {
	logger  commons.Logger
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates a process-local store; each entry is evicted by its
// own timer ttl after the last Put.
func NewMemoryStore(logger commons.Logger, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memoryStore{
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

func (s *memoryStore) Put(ctx context.Context, callID string, cc *CallContext) error {
	if callID == "" {
		return fmt.Errorf("call context requires a call id")
	}
	stored := cc.Clone()
	stored.CallID = callID
	stored.CreatedDate = s.now()

	entry := &memoryEntry{cc: stored}

	s.mu.Lock()
	if previous, ok := s.entries[callID]; ok {
		previous.timer.Stop()
	}
	entry.timer = time.AfterFunc(s.ttl, func() { s.evict(callID, entry) })
	s.entries[callID] = entry
	total := len(s.entries)
	s.mu.Unlock()

	s.logger.Debugf("stored call context: callId=%s, direction=%s, total=%d", callID, stored.Direction, total)
	return nil
}

// evict removes the entry only if it was not replaced in the meantime.
func (s *memoryStore) evict(callID string, entry *memoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.entries[callID]; ok && current == entry {
		delete(s.entries, callID)
		s.logger.Debugf("evicted call context: callId=%s", callID)
	}
}

func (s *memoryStore) Get(ctx context.Context, callID string) (*CallContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[callID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, callID)
	}
	return entry.cc.Clone(), nil
}

func (s *memoryStore) Remove(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[callID]; ok {
		entry.timer.Stop()
		delete(s.entries, callID)
	}
	return nil
}

func (s *memoryStore) MostRecent(ctx context.Context, within time.Duration) (*CallContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest *CallContext
	for _, entry := range s.entries {
		if newest == nil || entry.cc.CreatedDate.After(newest.CreatedDate) {
			newest = entry.cc
		}
	}
	if newest == nil || newest.Age(s.now()) > within {
		return nil, ErrNotFound
	}
	return newest.Clone(), nil
}

func (s *memoryStore) List(ctx context.Context) ([]*CallContext, error) {
	s.mu.Lock()
	out := make([]*CallContext, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.cc.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	return out, nil
}
