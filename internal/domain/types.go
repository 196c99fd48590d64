package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ServiceContentNode is the registered service name of this node type.
const ServiceContentNode = "content-node"

// walletPattern matches a 20-byte hex wallet with 0x prefix.
var walletPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// NormalizeWallet lower-cases and trims a wallet public key. Wallets are
// stored and compared in this canonical form only.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

// ValidateWallet normalizes a wallet public key and rejects anything that
// is not a 0x-prefixed 20-byte hex string.
func ValidateWallet(wallet string) (string, error) {
	normalized := NormalizeWallet(wallet)
	if !walletPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: invalid wallet public key %q", ErrBadRequest, wallet)
	}
	return normalized, nil
}

// SyncType classifies why a sync was requested
type SyncType string

const (
	// SyncTypeRecurring is a routine catch-up triggered after a primary write
	SyncTypeRecurring SyncType = "recurring"
	// SyncTypeManual is an operator- or client-requested sync
	SyncTypeManual SyncType = "manual"
)

// IsValidSyncType checks if a sync type is valid
func IsValidSyncType(t SyncType) bool {
	return t == SyncTypeRecurring || t == SyncTypeManual
}

// ReplicaSet is the ordered storage assignment of one user: a primary that
// accepts writes and secondaries that replicate from it.
type ReplicaSet struct {
	Primary     string   `json:"primary"`
	Secondaries []string `json:"secondaries"`
}

// Endpoints returns the replica set as a flat endpoint list, primary first.
func (r ReplicaSet) Endpoints() []string {
	endpoints := make([]string, 0, len(r.Secondaries)+1)
	if r.Primary != "" {
		endpoints = append(endpoints, r.Primary)
	}
	endpoints = append(endpoints, r.Secondaries...)
	return endpoints
}

// Contains reports whether endpoint is part of the replica set.
func (r ReplicaSet) Contains(endpoint string) bool {
	endpoint = strings.TrimSuffix(endpoint, "/")
	for _, e := range r.Endpoints() {
		if strings.TrimSuffix(e, "/") == endpoint {
			return true
		}
	}
	return false
}

// ReplicaSetFromMetadata extracts the user's replica set from a metadata
// document. Returns the zero value when the document is empty, malformed or
// carries no creator_node_endpoint.
func ReplicaSetFromMetadata(metadataJSON []byte) ReplicaSet {
	if len(metadataJSON) == 0 {
		return ReplicaSet{}
	}
	var doc struct {
		CreatorNodeEndpoint string `json:"creator_node_endpoint"`
	}
	if err := json.Unmarshal(metadataJSON, &doc); err != nil {
		return ReplicaSet{}
	}
	return ParseReplicaSet(doc.CreatorNodeEndpoint)
}

// ParseReplicaSet parses the comma-separated creator_node_endpoint value
// stored in user metadata. The first endpoint is the primary, the rest are
// secondaries. Blank entries are dropped.
func ParseReplicaSet(endpointList string) ReplicaSet {
	var replicaSet ReplicaSet
	for _, endpoint := range strings.Split(endpointList, ",") {
		endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
		if endpoint == "" {
			continue
		}
		if replicaSet.Primary == "" {
			replicaSet.Primary = endpoint
		} else {
			replicaSet.Secondaries = append(replicaSet.Secondaries, endpoint)
		}
	}
	return replicaSet
}
