package peer_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				ps.Add(peer)
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a duplicate peer.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for i := range peers {
				if peers[i] != tst.peers[i] {
					t.Fatalf("Test %s:\tShould get back the peers sorted by host.", tst.name)
				}
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			ps.Remove(tst.peers[0])
			if ps.Len() != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_NormalizeAddress(t *testing.T) {
	type table struct {
		name    string
		address string
		host    string
		invalid bool
	}

	tt := []table{
		{name: "url", address: "http://192.168.0.5:5000", host: "192.168.0.5:5000"},
		{name: "url-path", address: "http://192.168.0.5:5000/v1/node", host: "192.168.0.5:5000"},
		{name: "bare", address: "localhost:9080", host: "localhost:9080"},
		{name: "spaces", address: "  node-1.example.com:9180 ", host: "node-1.example.com:9180"},
		{name: "ipv6", address: "http://[::1]:9080", host: "[::1]:9080"},
		{name: "empty", address: "", invalid: true},
		{name: "no-port", address: "http://localhost", invalid: true},
		{name: "no-host", address: ":9080", invalid: true},
		{name: "port-range", address: "localhost:99999", invalid: true},
		{name: "port-zero", address: "127.0.0.1:0", invalid: true},
		{name: "bad-host", address: "http://-bad-:80", invalid: true},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			host, err := peer.NormalizeAddress(tst.address)

			if tst.invalid {
				if !errors.Is(err, peer.ErrInvalidAddress) {
					t.Fatalf("Test %s:\tShould reject %q with ErrInvalidAddress, got %v.", tst.name, tst.address, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Test %s:\tShould be able to normalize %q: %s", tst.name, tst.address, err)
			}

			if host != tst.host {
				t.Logf("Test %s:\tgot: %s", tst.name, host)
				t.Logf("Test %s:\texp: %s", tst.name, tst.host)
				t.Fatalf("Test %s:\tShould get back the host:port form.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
