package opinion

// chain.go: comprobaciones on-chain de arranque.
//
// Antes de operar en vivo verificamos que el RPC apunta a la misma cadena
// con la que firmamos, y registramos el saldo de colateral de la multisig.

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view"
		},
		{
			"name": "decimals",
			"type": "function",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint8"}],
			"stateMutability": "view"
		}
	]`))
	if err != nil {
		panic(fmt.Sprintf("opinion: parse erc20 abi: %v", err))
	}
}

// chainBackend is the subset of ethclient.Client we use.
type chainBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Chain wraps an RPC connection for the startup checks.
type Chain struct {
	backend chainBackend
}

// DialChain conecta con el RPC.
func DialChain(ctx context.Context, rpcURL string) (*Chain, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("opinion.DialChain: %w", err)
	}
	return &Chain{backend: client}, nil
}

// Close cierra la conexión RPC.
func (ch *Chain) Close() { ch.backend.Close() }

// VerifyChainID falla si el RPC sirve otra cadena distinta de want.
func (ch *Chain) VerifyChainID(ctx context.Context, want int64) error {
	got, err := ch.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("opinion.VerifyChainID: %w", err)
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		return fmt.Errorf("opinion.VerifyChainID: rpc chain id %s, configured %d", got, want)
	}
	return nil
}

// TokenBalance devuelve el saldo ERC-20 de holder, ya escalado por decimals().
func (ch *Chain) TokenBalance(ctx context.Context, token, holder string) (decimal.Decimal, error) {
	if !common.IsHexAddress(token) || !common.IsHexAddress(holder) {
		return decimal.Zero, fmt.Errorf("opinion.TokenBalance: invalid address")
	}
	tokenAddr := common.HexToAddress(token)

	raw, err := ch.call(ctx, tokenAddr, "balanceOf", common.HexToAddress(holder))
	if err != nil {
		return decimal.Zero, fmt.Errorf("opinion.TokenBalance: %w", err)
	}
	bal, ok := raw.(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("opinion.TokenBalance: unexpected balanceOf type %T", raw)
	}

	rawDec, err := ch.call(ctx, tokenAddr, "decimals")
	if err != nil {
		return decimal.Zero, fmt.Errorf("opinion.TokenBalance: %w", err)
	}
	dec, ok := rawDec.(uint8)
	if !ok {
		return decimal.Zero, fmt.Errorf("opinion.TokenBalance: unexpected decimals type %T", rawDec)
	}
	return decimal.NewFromBigInt(bal, -int32(dec)), nil
}

func (ch *Chain) call(ctx context.Context, to common.Address, method string, args ...any) (any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := ch.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("%s: expected 1 value, got %d", method, len(vals))
	}
	return vals[0], nil
}
