// Package agora is the Consensus Client: the one outbound
// connection this service makes, to the Agora node it projects. It only
// pulls (tip height, block ranges, Merkle audit paths) and never writes
// back to Agora's ledger (Non-goal).
package agora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lumenledger/stoa/ledger"
)

// Client talks to a single Agora node over plain HTTP GET.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client against baseURL (e.g. "http://127.0.0.1:2826").
// Every call gets its own per-attempt timeout via the supplied context;
// the client's own Timeout is a hard backstop.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetTipHeight returns Agora's current chain tip height.
func (c *Client) GetTipHeight(ctx context.Context) (uint64, error) {
	var out struct {
		Height uint64 `json:"height"`
	}
	if err := c.getJSON(ctx, "/block_height", &out); err != nil {
		return 0, fmt.Errorf("get_tip_height: %w", err)
	}
	return out.Height, nil
}

// GetBlocksFrom fetches up to maxBlocks blocks starting at height start,
// inclusive, used by the ingestion pipeline's recovery loop.
func (c *Client) GetBlocksFrom(ctx context.Context, start uint64, maxBlocks int) ([]*ledger.Block, error) {
	path := fmt.Sprintf("/blocks_from?height=%d&max_blocks=%d", start, maxBlocks)
	var blocks []*ledger.Block
	if err := c.getJSON(ctx, path, &blocks); err != nil {
		return nil, fmt.Errorf("get_blocks_from(%d,%d): %w", start, maxBlocks, err)
	}
	return blocks, nil
}

// MerklePath is an SPV audit path: the sibling hashes and leaf index
// needed to fold a transaction hash up to a block's Merkle root.
type MerklePath struct {
	Siblings [][]byte `json:"siblings"`
	Index    uint64   `json:"index"`
	Root     string   `json:"root"`
}

// GetMerklePath fetches the audit path proving txHash's membership in the
// block at height.
func (c *Client) GetMerklePath(ctx context.Context, height uint64, txHash string) (*MerklePath, error) {
	path := "/merkle_path/" + strconv.FormatUint(height, 10) + "/" + txHash
	var out MerklePath
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("get_merkle_path(%d,%s): %w", height, txHash, err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
