// ledger.go - JSON-RPC client for the Voting contract
//
// The contract is an opaque black box reachable through three primitives:
// call (read-only), transact (state-changing, node-managed signing) and
// AwaitReceipt (finality wait). Accounts are managed by the node (Ganache
// style), so transactions are submitted with eth_sendTransaction rather
// than signed locally.

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"go-voting-backend/config"
)

const receiptPollInterval = 2 * time.Second

// Client is the process-wide ledger handle: one RPC connection, one parsed
// ABI, one designated transaction-sending account. Initialized once at
// startup and read-only afterwards.
type Client struct {
	rpc       *rpc.Client
	eth       *ethclient.Client
	abi       abi.ABI
	contract  common.Address
	chainID   *big.Int
	txAccount common.Address
	accounts  []common.Address
	log       *logrus.Logger
}

// Connect dials the node, parses the contract ABI from the build artifact
// and resolves the account list. Every unmet precondition is a hard error;
// the process must not come up half-wired to the ledger.
func Connect(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	raw, err := os.ReadFile(cfg.ContractABIPath)
	if err != nil {
		return nil, fmt.Errorf("reading contract artifact %s: %w", cfg.ContractABIPath, err)
	}
	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("parsing contract artifact %s: %w", cfg.ContractABIPath, err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("contract artifact %s has no abi entry", cfg.ContractABIPath)
	}
	parsedABI, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing contract ABI: %w", err)
	}

	rpcClient, err := rpc.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", ErrUnreachable, cfg.RPCURL, err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s did not answer chain id: %v", ErrUnreachable, cfg.RPCURL, err)
	}

	var accounts []common.Address
	if err := rpcClient.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("%w: fetching node accounts: %v", ErrUnreachable, err)
	}

	c := &Client{
		rpc:      rpcClient,
		eth:      ethClient,
		abi:      parsedABI,
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  chainID,
		accounts: accounts,
		log:      log,
	}

	switch {
	case cfg.TxAccount != "":
		if !common.IsHexAddress(cfg.TxAccount) {
			return nil, fmt.Errorf("invalid TX_ACCOUNT %q", cfg.TxAccount)
		}
		c.txAccount = common.HexToAddress(cfg.TxAccount)
	case len(accounts) > 0:
		c.txAccount = accounts[0]
	default:
		return nil, errors.New("no node accounts available and no TX_ACCOUNT configured")
	}

	log.WithFields(logrus.Fields{
		"rpc":        cfg.RPCURL,
		"contract":   c.contract.Hex(),
		"tx_account": c.txAccount.Hex(),
		"accounts":   len(accounts),
	}).Info("ledger client connected")

	return c, nil
}

// TxAccount returns the designated transaction-sending account.
func (c *Client) TxAccount() common.Address {
	return c.txAccount
}

// Accounts returns the node-managed account list fetched at startup.
func (c *Client) Accounts() []common.Address {
	return c.accounts
}

// call executes a read-only contract function and unpacks its outputs.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		if wrapped := classifySubmitError(err); wrapped != nil {
			return nil, fmt.Errorf("%w: calling %s: %v", wrapped, method, err)
		}
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s result: %w", method, err)
	}
	return values, nil
}

// transact submits a state-changing transaction from the given account via
// eth_sendTransaction. gasLimit zero lets the node estimate.
func (c *Client) transact(ctx context.Context, from common.Address, gasLimit uint64, method string, args ...interface{}) (common.Hash, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("packing %s: %w", method, err)
	}
	params := map[string]interface{}{
		"from": from,
		"to":   c.contract,
		"data": hexutil.Bytes(data),
	}
	if gasLimit > 0 {
		params["gas"] = hexutil.Uint64(gasLimit)
	}

	var txHash common.Hash
	if err := c.rpc.CallContext(ctx, &txHash, "eth_sendTransaction", params); err != nil {
		if wrapped := classifySubmitError(err); wrapped != nil {
			return common.Hash{}, fmt.Errorf("%w: submitting %s: %v", wrapped, method, err)
		}
		return common.Hash{}, fmt.Errorf("submitting %s: %w", method, err)
	}
	return txHash, nil
}

// ReceiptStatus is the interpreted finality outcome of a transaction.
type ReceiptStatus int

const (
	StatusSuccess ReceiptStatus = iota
	StatusReverted
)

// Receipt carries the interpreted outcome of a finalized transaction. When
// reverted, RevertReason holds the raw message (possibly empty) and Reason
// the classification computed once at this boundary.
type Receipt struct {
	TxHash       common.Hash
	Status       ReceiptStatus
	BlockNumber  uint64
	GasUsed      uint64
	RevertReason string
	Reason       Reason
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// AwaitReceipt polls for the transaction receipt until it appears or the
// timeout elapses. A timeout returns ErrTimeout and leaves the outcome
// unknown; the transaction cannot be cancelled once submitted.
func (c *Client) AwaitReceipt(ctx context.Context, txHash common.Hash, timeout time.Duration) (*Receipt, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		r, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return c.interpretReceipt(ctx, r), nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			// Transient node trouble; keep polling until the deadline.
			c.log.WithError(err).WithField("tx", txHash.Hex()).Warn("receipt poll failed")
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: tx %s after %s", ErrTimeout, txHash.Hex(), timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) interpretReceipt(ctx context.Context, r *types.Receipt) *Receipt {
	out := &Receipt{
		TxHash:      r.TxHash,
		BlockNumber: r.BlockNumber.Uint64(),
		GasUsed:     r.GasUsed,
	}
	if r.Status == types.ReceiptStatusSuccessful {
		out.Status = StatusSuccess
		return out
	}
	out.Status = StatusReverted
	out.RevertReason = c.revertReason(ctx, r)
	out.Reason = ClassifyReason(out.RevertReason)
	return out
}

// revertReason replays the reverted transaction as an eth_call at its block
// to recover the require message. Best effort; an empty string is fine.
func (c *Client) revertReason(ctx context.Context, r *types.Receipt) string {
	tx, _, err := c.eth.TransactionByHash(ctx, r.TxHash)
	if err != nil {
		return ""
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		from = c.txAccount
	}
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	ret, err := c.eth.CallContract(ctx, msg, r.BlockNumber)
	if err != nil {
		return parseRevertError(err)
	}
	if reason, uerr := abi.UnpackRevert(ret); uerr == nil {
		return reason
	}
	return ""
}

// parseRevertError digs the revert message out of an RPC error, either from
// the attached return data or from the error string itself.
func parseRevertError(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if reason, uerr := abi.UnpackRevert(common.FromHex(hexData)); uerr == nil {
				return reason
			}
		}
	}
	msg := err.Error()
	for _, marker := range []string{"execution reverted: ", "revert "} {
		if idx := strings.Index(msg, marker); idx >= 0 {
			return strings.TrimSpace(msg[idx+len(marker):])
		}
	}
	return msg
}
