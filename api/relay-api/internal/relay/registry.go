// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_relay

import "sync"

// Registry tracks live sessions by call sid.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(key string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[key] = s
}

func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Remove deletes key only while it still maps to s, so a session never
// evicts a newer one registered under the same call sid.
func (r *Registry) Remove(key string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[key]; ok && current == s {
		delete(r.sessions, key)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
