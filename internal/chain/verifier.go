package chain

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type TxStatus string

const (
	StatusNotStarted TxStatus = "notStarted"
	StatusPending    TxStatus = "pending"
	StatusConfirmed  TxStatus = "confirmed"
	StatusFailed     TxStatus = "failed"
)

type TxDetails struct {
	Status      TxStatus
	Amount      float64 // token units
	FromAddress string
	ToAddress   string
}

// Verifier answers "did this transfer happen on chain, and what moved".
// Implementations must bound their own timeouts; a timeout is a transient
// error, never a failed verdict.
type Verifier interface {
	GetTxDetails(ctx context.Context, transactionId string, chain string) (TxDetails, error)
}

const verifyTimeout = 15 * time.Second

// EvmVerifier resolves transaction details against EVM chains over JSON-RPC.
// RPC endpoints come from RPC_URL_<CHAIN> env vars.
type EvmVerifier struct {
	decimals float64
}

func NewEvmVerifier() *EvmVerifier {
	return &EvmVerifier{decimals: 1e18}
}

func rpcURL(chainName string) string {
	return os.Getenv("RPC_URL_" + strings.ToUpper(chainName))
}

func (v *EvmVerifier) GetTxDetails(ctx context.Context, transactionId string, chainName string) (TxDetails, error) {
	url := rpcURL(chainName)
	if url == "" {
		return TxDetails{}, fmt.Errorf("no rpc endpoint configured for chain %q", chainName)
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return TxDetails{}, err
	}
	defer client.Close()

	hash := common.HexToHash(transactionId)
	tx, isPending, err := client.TransactionByHash(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			return TxDetails{Status: StatusNotStarted}, nil
		}
		return TxDetails{}, err
	}
	details := TxDetails{
		Amount: weiToUnits(tx.Value(), v.decimals),
	}
	if tx.To() != nil {
		details.ToAddress = tx.To().Hex()
	}
	if sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		details.FromAddress = sender.Hex()
	}
	if isPending {
		details.Status = StatusPending
		return details, nil
	}
	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			details.Status = StatusPending
			return details, nil
		}
		return TxDetails{}, err
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		details.Status = StatusConfirmed
	} else {
		details.Status = StatusFailed
	}
	return details, nil
}

func weiToUnits(wei *big.Int, decimals float64) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(decimals))
	out, _ := f.Float64()
	return out
}
