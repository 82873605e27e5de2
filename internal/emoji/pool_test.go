package emoji

import "testing"

func TestDefaultPoolsAreDisjoint(t *testing.T) {
	pools := DefaultPools()

	round1 := pools.PoolFor(Round1)
	round2 := pools.PoolFor(Round2)

	if len(round1) != 26 {
		t.Errorf("round 1 pool size = %d, want 26", len(round1))
	}
	if len(round2) != 26 {
		t.Errorf("round 2 pool size = %d, want 26", len(round2))
	}
	if pools.CombinedSize() != 52 {
		t.Errorf("CombinedSize() = %d, want 52", pools.CombinedSize())
	}

	seen := make(map[string]bool)
	for _, e := range round1 {
		if seen[e] {
			t.Errorf("duplicate emoji %q in round 1 pool", e)
		}
		seen[e] = true
	}
	for _, e := range round2 {
		if seen[e] {
			t.Errorf("emoji %q appears in both pools", e)
		}
		seen[e] = true
	}
}

func TestNewPoolsValidation(t *testing.T) {
	tests := []struct {
		name    string
		round1  []string
		round2  []string
		wantErr bool
	}{
		{
			name:    "valid disjoint pools",
			round1:  []string{"😺", "⭐", "🌳"},
			round2:  []string{"🍒", "🔔", "🌸"},
			wantErr: false,
		},
		{
			name:    "empty round 1 pool",
			round1:  nil,
			round2:  []string{"🍒"},
			wantErr: true,
		},
		{
			name:    "duplicate within a pool",
			round1:  []string{"😺", "😺"},
			round2:  []string{"🍒"},
			wantErr: true,
		},
		{
			name:    "overlap between pools",
			round1:  []string{"😺", "⭐"},
			round2:  []string{"⭐", "🍒"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPools(tt.round1, tt.round2)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPools() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAvailableExcludesSymbols(t *testing.T) {
	pools := DefaultPools()
	round1 := pools.PoolFor(Round1)
	round2 := pools.PoolFor(Round2)

	key := round1[0]
	otherKey := round2[0]

	available := pools.Available(Round1, key, otherKey)

	// The other round's key is not in this pool, so only one symbol drops out.
	if len(available) != 25 {
		t.Errorf("len(Available()) = %d, want 25", len(available))
	}
	for _, e := range available {
		if e == key || e == otherKey {
			t.Errorf("Available() still contains excluded emoji %q", e)
		}
	}
}

func TestAvailableUnknownRound(t *testing.T) {
	pools := DefaultPools()
	if got := pools.Available(3); got != nil {
		t.Errorf("Available(3) = %v, want nil", got)
	}
	if got := pools.PoolFor(0); got != nil {
		t.Errorf("PoolFor(0) = %v, want nil", got)
	}
}

func TestMaxGridSize(t *testing.T) {
	// 26-symbol pools minus 2 keys leave 24 fillers: enough for 5x5 (24
	// fillers needed) but not 6x6 (35 needed).
	if got := DefaultPools().MaxGridSize(); got != 5 {
		t.Errorf("MaxGridSize() = %d, want 5", got)
	}
}
