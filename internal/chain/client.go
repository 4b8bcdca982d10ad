// Package chain wraps the SPVPropertyToken contract behind a small client.
// Every call is context-bound and failable; none of them run inside a ledger
// transaction.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Minimal interface of the SPVPropertyToken contract.
const contractABI = `[
	{"inputs":[{"internalType":"address","name":"account","type":"address"},{"internalType":"bool","name":"status","type":"bool"}],"name":"setWhitelisted","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"isWhitelisted","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"manager","type":"address"},{"internalType":"uint256","name":"totalSupply","type":"uint256"},{"internalType":"string","name":"propertyURI","type":"string"}],"name":"createProperty","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"},{"internalType":"uint256","name":"id","type":"uint256"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"tokenId","type":"uint256"}],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const txGasLimit = 200000

// Config holds the connection settings for the contract client.
type Config struct {
	RPCURL          string
	ContractAddress string
	AdminPrivateKey string
	ChainID         int64
}

// Client talks to the SPVPropertyToken contract. The admin key signs
// whitelist and issuance transactions; views need no key.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
	abi      abi.ABI
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
}

// New dials the RPC endpoint and prepares the contract binding.
func New(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" || cfg.ContractAddress == "" {
		return nil, fmt.Errorf("chain: RPC URL and contract address are required")
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to dial RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("chain: failed to parse contract ABI: %w", err)
	}

	client := &Client{
		eth:      eth,
		contract: common.HexToAddress(cfg.ContractAddress),
		abi:      parsed,
		chainID:  big.NewInt(cfg.ChainID),
	}

	if cfg.AdminPrivateKey != "" {
		key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(cfg.AdminPrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("chain: invalid admin private key: %w", err)
		}
		client.key = key
		client.from = ethcrypto.PubkeyToAddress(key.PublicKey)
	}

	return client, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// SetWhitelisted adds or removes an address from the KYC whitelist and
// returns the transaction hash.
func (c *Client) SetWhitelisted(ctx context.Context, walletAddress string, status bool) (string, error) {
	data, err := c.abi.Pack("setWhitelisted", common.HexToAddress(walletAddress), status)
	if err != nil {
		return "", fmt.Errorf("chain: failed to pack setWhitelisted: %w", err)
	}
	return c.sendTransaction(ctx, data)
}

// IsWhitelisted reports whether an address is on the KYC whitelist.
func (c *Client) IsWhitelisted(ctx context.Context, walletAddress string) (bool, error) {
	out, err := c.call(ctx, "isWhitelisted", common.HexToAddress(walletAddress))
	if err != nil {
		return false, err
	}
	whitelisted, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("chain: unexpected isWhitelisted return type %T", out[0])
	}
	return whitelisted, nil
}

// CreateProperty mints a new property token and returns the transaction
// hash. The token ID is read back from the contract once mined; callers
// record it on the property via the registry.
func (c *Client) CreateProperty(ctx context.Context, managerAddress string, totalSupply int64, propertyURI string) (string, error) {
	data, err := c.abi.Pack("createProperty",
		common.HexToAddress(managerAddress), big.NewInt(totalSupply), propertyURI)
	if err != nil {
		return "", fmt.Errorf("chain: failed to pack createProperty: %w", err)
	}
	return c.sendTransaction(ctx, data)
}

// BalanceOf returns the fraction balance of an account for a token.
func (c *Client) BalanceOf(ctx context.Context, walletAddress string, tokenID int64) (int64, error) {
	out, err := c.call(ctx, "balanceOf", common.HexToAddress(walletAddress), big.NewInt(tokenID))
	if err != nil {
		return 0, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("chain: unexpected balanceOf return type %T", out[0])
	}
	return balance.Int64(), nil
}

// TotalSupply returns the issued fraction supply of a token.
func (c *Client) TotalSupply(ctx context.Context, tokenID int64) (int64, error) {
	out, err := c.call(ctx, "totalSupply", big.NewInt(tokenID))
	if err != nil {
		return 0, err
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("chain: unexpected totalSupply return type %T", out[0])
	}
	return supply.Int64(), nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to pack %s: %w", method, err)
	}

	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: %s call failed: %w", method, err)
	}

	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to unpack %s: %w", method, err)
	}
	return out, nil
}

func (c *Client) sendTransaction(ctx context.Context, data []byte) (string, error) {
	if c.key == nil {
		return "", fmt.Errorf("chain: admin private key not configured")
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return "", fmt.Errorf("chain: failed to fetch nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("chain: failed to suggest gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), txGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("chain: failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("chain: failed to send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}
