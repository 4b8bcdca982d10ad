package chain

import (
	"context"

	"domira/internal/services"
)

// WalletLister enumerates candidate holder wallets. The user service
// provides the KYC-verified wallets known to the platform.
type WalletLister interface {
	ListVerifiedWallets() ([]string, error)
}

// HolderSource builds holder snapshots from on-chain balances. The snapshot
// covers every verified wallet plus the manager pool address, so a snapshot
// of a fully conservation-respecting token sums to its total supply.
type HolderSource struct {
	client      *Client
	wallets     WalletLister
	poolAddress string
}

// NewHolderSource creates a holder source backed by the contract client.
func NewHolderSource(client *Client, wallets WalletLister, poolAddress string) *HolderSource {
	return &HolderSource{client: client, wallets: wallets, poolAddress: poolAddress}
}

// HoldersOf queries the balance of every candidate wallet for the token and
// returns the non-zero holders.
func (h *HolderSource) HoldersOf(ctx context.Context, tokenID int64) ([]services.Holder, error) {
	wallets, err := h.wallets.ListVerifiedWallets()
	if err != nil {
		return nil, err
	}
	if h.poolAddress != "" {
		wallets = append(wallets, h.poolAddress)
	}

	holders := make([]services.Holder, 0, len(wallets))
	seen := make(map[string]bool, len(wallets))
	for _, wallet := range wallets {
		if seen[wallet] {
			continue
		}
		seen[wallet] = true

		balance, err := h.client.BalanceOf(ctx, wallet, tokenID)
		if err != nil {
			return nil, err
		}
		if balance > 0 {
			holders = append(holders, services.Holder{WalletAddress: wallet, Fractions: balance})
		}
	}
	return holders, nil
}
