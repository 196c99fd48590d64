package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/audfs/creator-node/internal/domain"
)

// Denylist represents the structure of the denylist JSON file. CIDs on the
// list are never served and wallets on the list may not write content.
type Denylist struct {
	CIDs    []string `json:"cids"`
	Wallets []string `json:"wallets"`

	cidSet    map[string]bool
	walletSet map[string]bool
}

// LoadDenylist loads the denylist from a JSON file. An empty path yields an
// empty denylist so deployments without one need no placeholder file.
func LoadDenylist(filePath string) (*Denylist, error) {
	denylist := &Denylist{}
	if filePath == "" {
		denylist.buildLookupSets()
		return denylist, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, denylist); err != nil {
		return nil, fmt.Errorf("failed to parse denylist file %s: %w", filePath, err)
	}

	denylist.buildLookupSets()
	return denylist, nil
}

// buildLookupSets builds normalized lookup sets for fast checks
func (d *Denylist) buildLookupSets() {
	d.cidSet = make(map[string]bool, len(d.CIDs))
	for _, cid := range d.CIDs {
		cid = strings.TrimSpace(cid)
		if cid == "" {
			continue
		}
		d.cidSet[cid] = true
	}

	d.walletSet = make(map[string]bool, len(d.Wallets))
	for _, wallet := range d.Wallets {
		wallet = domain.NormalizeWallet(wallet)
		if wallet == "" {
			continue
		}
		d.walletSet[wallet] = true
	}
}

// IsCIDDenied checks whether a content identifier is on the denylist
func (d *Denylist) IsCIDDenied(cid string) bool {
	if d == nil {
		return false
	}
	return d.cidSet[strings.TrimSpace(cid)]
}

// IsWalletDenied checks whether a wallet is on the denylist
func (d *Denylist) IsWalletDenied(wallet string) bool {
	if d == nil {
		return false
	}
	return d.walletSet[domain.NormalizeWallet(wallet)]
}
