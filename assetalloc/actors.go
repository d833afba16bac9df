// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package assetalloc

import (
	"encoding/hex"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Actor is the logical identity behind an allocation: the hex encoded
// witness address of a sender or receiver.
type Actor string

// ActorOf returns the actor identified by addr.
func ActorOf(addr WitnessAddress) Actor {
	return Actor(hex.EncodeToString(addr.Bytes()))
}

// Actors returns the distinct actors of alloc in sorted order.  Senders are
// always included and receivers only when justSender is false.
func Actors(alloc *Allocation, justSender bool) []Actor {
	set := make(map[Actor]struct{})
	for _, tuple := range alloc.Tuples {
		set[ActorOf(tuple.Sender)] = struct{}{}
		if justSender {
			continue
		}
		for _, recv := range tuple.Receivers {
			set[ActorOf(recv.Address)] = struct{}{}
		}
	}

	actors := make([]Actor, 0, len(set))
	for actor := range set {
		actors = append(actors, actor)
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i] < actors[j] })
	return actors
}

// ToleranceSet records the actors whose double spend is currently tolerated
// in the pool, at most one per actor and at most a fixed number overall.
// It is safe for concurrent access.
type ToleranceSet struct {
	mtx      sync.Mutex
	capacity int
	byActor  map[Actor]chainhash.Hash
	byHash   map[chainhash.Hash]Actor
}

// NewToleranceSet returns an empty set holding at most capacity actors.
func NewToleranceSet(capacity int) *ToleranceSet {
	return &ToleranceSet{
		capacity: capacity,
		byActor:  make(map[Actor]chainhash.Hash),
		byHash:   make(map[chainhash.Hash]Actor),
	}
}

// Contains reports whether actor already has a tolerated double spend.
func (s *ToleranceSet) Contains(actor Actor) bool {
	s.mtx.Lock()
	_, ok := s.byActor[actor]
	s.mtx.Unlock()
	return ok
}

// Len returns the number of tolerated double spends.
func (s *ToleranceSet) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.byActor)
}

// HasHeadroom reports whether another double spend may be tolerated.
func (s *ToleranceSet) HasHeadroom() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.byActor) < s.capacity
}

// Tolerate records hash as the tolerated double spend of actor.  It returns
// false when the actor is already recorded or the set is full.
func (s *ToleranceSet) Tolerate(actor Actor, hash chainhash.Hash) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.byActor[actor]; ok || len(s.byActor) >= s.capacity {
		return false
	}
	s.byActor[actor] = hash
	s.byHash[hash] = actor
	return true
}

// Release forgets the double spend recorded for hash, if any.
func (s *ToleranceSet) Release(hash chainhash.Hash) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	actor, ok := s.byHash[hash]
	if !ok {
		return
	}
	delete(s.byHash, hash)
	delete(s.byActor, actor)
}

// Reset forgets every tolerated double spend.
func (s *ToleranceSet) Reset() {
	s.mtx.Lock()
	s.byActor = make(map[Actor]chainhash.Hash)
	s.byHash = make(map[chainhash.Hash]Actor)
	s.mtx.Unlock()
}
