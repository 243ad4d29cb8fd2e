package domain

import "fmt"

// PeerPolicy selects how peer entries may be established.
type PeerPolicy int

const (
	// PolicyOwnerSet allows the owner to set each chain's peer directly,
	// exactly once. Re-wiring requires the governance refresh path.
	PolicyOwnerSet PeerPolicy = iota

	// PolicyGoverned permanently disables the direct setter. Peers are
	// established only via governance messages or the governance-chain
	// local AddPeers call.
	PolicyGoverned
)

func (p PeerPolicy) String() string {
	switch p {
	case PolicyOwnerSet:
		return "owner-set"
	case PolicyGoverned:
		return "governed"
	default:
		return "unknown"
	}
}

// PeerTable maps remote chain IDs to the single trusted remote address per
// chain. Authorization of writes is split between the table (policy) and
// the controller (caller identity, message origin).
type PeerTable struct {
	policy PeerPolicy
	peers  map[ChainID]Address
}

// NewPeerTable creates an empty table under the given policy.
func NewPeerTable(policy PeerPolicy) *PeerTable {
	return &PeerTable{policy: policy, peers: make(map[ChainID]Address)}
}

// Policy returns the table's write policy.
func (t *PeerTable) Policy() PeerPolicy { return t.policy }

// Set is the direct setter. Under PolicyGoverned it always fails; under
// PolicyOwnerSet a second write for the same chain fails rather than
// silently replacing the trusted address.
func (t *PeerTable) Set(chain ChainID, addr Address) error {
	if t.policy == PolicyGoverned {
		return fmt.Errorf("%w: direct peer set", ErrFunctionDisabled)
	}
	if _, exists := t.peers[chain]; exists {
		return fmt.Errorf("%w: chain %d", ErrPeerAlreadySet, chain)
	}
	t.peers[chain] = addr
	return nil
}

// Refresh writes an entry unconditionally. This is the governance path and
// the only overwrite-capable write.
func (t *PeerTable) Refresh(chain ChainID, addr Address) {
	t.peers[chain] = addr
}

// Get returns the trusted address for a chain.
func (t *PeerTable) Get(chain ChainID) (Address, bool) {
	a, ok := t.peers[chain]
	return a, ok
}

// IsPeer reports whether addr is exactly the stored entry for chain.
func (t *PeerTable) IsPeer(chain ChainID, addr Address) bool {
	stored, ok := t.peers[chain]
	return ok && stored == addr
}

// All returns a copy of the table contents for snapshotting.
func (t *PeerTable) All() map[ChainID]Address {
	out := make(map[ChainID]Address, len(t.peers))
	for k, v := range t.peers {
		out[k] = v
	}
	return out
}

// Restore replaces the table contents. Used only by state recovery.
func (t *PeerTable) Restore(peers map[ChainID]Address) {
	t.peers = make(map[ChainID]Address, len(peers))
	for k, v := range peers {
		t.peers[k] = v
	}
}
