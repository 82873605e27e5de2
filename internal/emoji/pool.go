package emoji

import (
	"errors"
	"fmt"
)

// Challenge rounds. Round 1 draws from the first pool, round 2 from the second.
const (
	Round1 = 1
	Round2 = 2
)

var (
	ErrInsufficientPool = errors.New("not enough unique emojis in pool for requested grid size")
	ErrDuplicateEmoji   = errors.New("duplicate emoji in generated grid")
	ErrKeyNotFound      = errors.New("key emoji not found in generated grid")
)

// Reference deployment pools: 26 symbols per round, disjoint.
var defaultRound1Pool = []string{
	"😺", "⭐", "🌳", "🐶", "🌙", "🍎", "🚀", "🎉", "🦄", "🌈", "🍕", "🎸", "⚡",
	"🦋", "🌟", "🐳", "🐱", "🌞", "🍉", "🎵", "🦁", "🌼", "🚗", "🎤", "🐢", "🍋",
}

var defaultRound2Pool = []string{
	"🍒", "🔔", "🌸", "🎁", "🌍", "🍦", "🎨", "⚽", "🍩", "🐧", "🌵", "🦉", "🍄",
	"🦖", "🌺", "🦜", "🍓", "🎲", "🌴", "🐸", "🍰", "🎻", "🦷", "🌊", "🐙", "🍇",
}

// Pools holds the fixed symbol sets for the two challenge rounds. The slices
// are copied at construction and never mutated afterwards, so a single Pools
// value is safe to share across request handlers without locking.
type Pools struct {
	round1 []string
	round2 []string
}

// NewPools builds a Pools from two symbol sets. The sets must be non-empty,
// free of duplicates, and disjoint from each other.
func NewPools(round1, round2 []string) (*Pools, error) {
	if len(round1) == 0 || len(round2) == 0 {
		return nil, errors.New("emoji pools must not be empty")
	}

	seen := make(map[string]bool, len(round1)+len(round2))
	for _, e := range round1 {
		if seen[e] {
			return nil, fmt.Errorf("duplicate emoji %q in round 1 pool", e)
		}
		seen[e] = true
	}
	for _, e := range round2 {
		if seen[e] {
			return nil, fmt.Errorf("emoji %q appears in both pools or twice in round 2 pool", e)
		}
		seen[e] = true
	}

	return &Pools{
		round1: append([]string(nil), round1...),
		round2: append([]string(nil), round2...),
	}, nil
}

// DefaultPools returns the reference deployment pools (26 symbols per round).
func DefaultPools() *Pools {
	return &Pools{
		round1: append([]string(nil), defaultRound1Pool...),
		round2: append([]string(nil), defaultRound2Pool...),
	}
}

// PoolFor returns a copy of the symbol set for the given round, or nil for an
// unknown round.
func (p *Pools) PoolFor(round int) []string {
	switch round {
	case Round1:
		return append([]string(nil), p.round1...)
	case Round2:
		return append([]string(nil), p.round2...)
	default:
		return nil
	}
}

// Available returns the round's pool minus the excluded symbols, in pool
// order. Callers are expected to sample from the result.
func (p *Pools) Available(round int, excluded ...string) []string {
	pool := p.PoolFor(round)
	if len(excluded) == 0 {
		return pool
	}

	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}

	available := pool[:0]
	for _, e := range pool {
		if !skip[e] {
			available = append(available, e)
		}
	}
	return available
}

// Combined returns the union of both pools.
func (p *Pools) Combined() []string {
	combined := make([]string, 0, len(p.round1)+len(p.round2))
	combined = append(combined, p.round1...)
	combined = append(combined, p.round2...)
	return combined
}

// CombinedSize returns the total number of symbols across both pools.
func (p *Pools) CombinedSize() int {
	return len(p.round1) + len(p.round2)
}

// MaxGridSize returns the largest grid side length the pools can fill for a
// single round, accounting for the two excluded key emojis.
func (p *Pools) MaxGridSize() int {
	smallest := len(p.round1)
	if len(p.round2) < smallest {
		smallest = len(p.round2)
	}
	// A round needs size²-1 fillers after excluding both keys.
	size := 2
	for (size+1)*(size+1)-1 <= smallest-2 {
		size++
	}
	return size
}
