package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// defaultPeerTimeout bounds every request made to a peer when no client
// timeout is configured.
const defaultPeerTimeout = 5 * time.Second

// errDecode marks a response body that could not be decoded.
var errDecode = errors.New("decode response")

// =============================================================================

// HTTPFetcher retrieves peer chains over the private node API.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs a fetcher where each request is bound by the
// specified timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultPeerTimeout
	}

	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchPeerChain implements the consensus.Fetcher interface.
func (f *HTTPFetcher) FetchPeerChain(ctx context.Context, pr peer.Peer) (consensus.Chain, error) {
	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var chain consensus.Chain
	if err := send(ctx, f.client, http.MethodGet, url, nil, &chain); err != nil {
		if errors.Is(err, errDecode) {
			return consensus.Chain{}, fmt.Errorf("%w: %w", consensus.ErrMalformedPeerChain, err)
		}
		return consensus.Chain{}, err
	}

	return chain, nil
}

// =============================================================================

// NetSendTxToPeers shares a new transaction with the known peers.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	client := http.Client{Timeout: defaultPeerTimeout}

	for _, peer := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("%s/tx/submit", fmt.Sprintf(baseURL, peer.Host))
		if err := send(ctx, &client, http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: %s: %s", peer, err)
		}
	}
}

// NetRequestPeerStatus asks the peer for its latest block and the peers
// it knows about.
func (s *State) NetRequestPeerStatus(ctx context.Context, pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))
	client := http.Client{Timeout: defaultPeerTimeout}

	var ps peer.PeerStatus
	if err := send(ctx, &client, http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blkidx[%d]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.KnownPeers)

	return ps, nil
}

// NetRequestAddPeer tells the peer about this node so it will be included
// in the peer's conflict resolution.
func (s *State) NetRequestAddPeer(ctx context.Context, pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr)

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))
	client := http.Client{Timeout: defaultPeerTimeout}

	return send(ctx, &client, http.MethodPost, url, peer.New(s.host), nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(ctx context.Context, client *http.Client, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return fmt.Errorf("%w: %w", errDecode, err)
		}
	}

	return nil
}
