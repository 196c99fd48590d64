package dto

// HealthResponse is the body of /health_check, consumed by replica
// selection when ranking nodes
type HealthResponse struct {
	Healthy bool   `json:"healthy"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// SyncStatusResponse reports a wallet's replication position on this node.
// Values are -1 when the wallet is unknown here.
type SyncStatusResponse struct {
	WalletPublicKey   string `json:"walletPublicKey"`
	LatestBlockNumber int64  `json:"latestBlockNumber"`
	ClockValue        int64  `json:"clockValue"`
}

// ClockStatusResponse reports a wallet's current clock value
type ClockStatusResponse struct {
	WalletPublicKey string `json:"walletPublicKey"`
	ClockValue      int64  `json:"clockValue"`
}
