package state

import "github.com/ardanlabs/powledger/foundation/blockchain/peer"

// RegisterPeer normalizes the address to its host:port form and adds it to
// the set of known peers. Registering the same peer twice has no effect.
func (s *State) RegisterPeer(address string) (peer.Peer, error) {
	pr, err := peer.Parse(address)
	if err != nil {
		return peer.Peer{}, err
	}

	if s.AddKnownPeer(pr) {
		s.evHandler("state: RegisterPeer: adding peer-node %s", pr)
	}

	return pr, nil
}

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	if peer.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}
