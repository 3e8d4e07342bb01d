package rpc

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synnergy-spiral/spiralchain/core"
)

// walletCreateResponse carries a freshly generated keypair. The private key
// never touches disk on the node side; it is the caller's responsibility to
// store it and to submit future transactions signed with it.
type walletCreateResponse struct {
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

func (s *Server) handleWalletCreate(w http.ResponseWriter, r *http.Request) {
	sk, pk, err := core.GenerateSigningKey()
	if err != nil {
		writeError(w, err)
		return
	}
	pubBytes := pk.PublicKeyBytes()
	writeJSON(w, http.StatusOK, walletCreateResponse{
		Address:    core.AddressFromPublicKey(pubBytes).String(),
		PublicKey:  hex.EncodeToString(pubBytes),
		PrivateKey: hex.EncodeToString(sk.PrivateKeyBytes()),
	})
}

// txSubmitRequest is the wire shape of a signed transaction: every
// fixed-size core field rendered as hex so it survives JSON untouched.
type txSubmitRequest struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	AmountBaseUnits uint64  `json:"amount_base_units"`
	FeeBaseUnits    uint64  `json:"fee_base_units"`
	Nonce           uint64  `json:"nonce"`
	TimestampMS     uint64  `json:"timestamp_ms"`
	SenderPublicKey string  `json:"sender_public_key"`
	Signature       string  `json:"signature"`
	Purpose         string  `json:"purpose"`
	Entities        []string `json:"entities,omitempty"`
	Intent          uint8   `json:"intent"`
}

type txSubmitResponse struct {
	TxHash string `json:"tx_hash"`
}

func (s *Server) handleTxSubmit(w http.ResponseWriter, r *http.Request) {
	var req txSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.WrapStructural("decode tx request: "+err.Error()))
		return
	}

	from, err := addressFromHex(req.From)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := addressFromHex(req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	senderPubKey, err := hex.DecodeString(req.SenderPublicKey)
	if err != nil {
		writeError(w, core.WrapStructural("malformed sender_public_key"))
		return
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeError(w, core.WrapStructural("malformed signature"))
		return
	}

	tx := core.Transaction{
		Version:         1,
		From:            from,
		To:              to,
		Amount:          core.NewAmount(req.AmountBaseUnits),
		Fee:             core.NewAmount(req.FeeBaseUnits),
		Nonce:           req.Nonce,
		TimestampMS:     req.TimestampMS,
		Signature:       sig,
		SenderPublicKey: senderPubKey,
		Purpose:         req.Purpose,
		Entities:        req.Entities,
		Intent:          core.Intent(req.Intent),
	}

	if err := s.node.Mempool.Insert(tx, s.node.State); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, txSubmitResponse{TxHash: hex.EncodeToString(txHash(tx))})
}

func txHash(tx core.Transaction) []byte {
	h := tx.TxHash()
	return h[:]
}

type stateQueryResponse struct {
	Address    string  `json:"address"`
	Balance    uint64  `json:"balance_base_units"`
	Nonce      uint64  `json:"nonce"`
	Reputation float64 `json:"reputation"`
}

func (s *Server) handleStateQuery(w http.ResponseWriter, r *http.Request) {
	addr, err := addressFromHex(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	acct, ok := s.node.State.Account(addr)
	if !ok {
		writeError(w, core.WrapState("account not found"))
		return
	}
	writeJSON(w, http.StatusOK, stateQueryResponse{
		Address:    addr.String(),
		Balance:    acct.Balance.Uint64(),
		Nonce:      acct.Nonce,
		Reputation: acct.Reputation,
	})
}

type blockQueryResponse struct {
	Height           uint64 `json:"height"`
	PreviousHash     string `json:"previous_hash"`
	StateRoot        string `json:"state_root"`
	MerkleSpiralRoot string `json:"merkle_spiral_root"`
	SlotNumber       uint64 `json:"slot_number"`
	ValidatorAddress string `json:"validator_address"`
	TxCount          uint32 `json:"tx_count"`
}

// handleBlockQuery only serves the current tip: the node keeps a checkpoint
// every CheckpointInterval blocks but does not retain the full block
// archive, so any other height reports a state error (409) rather than a
// stale guess.
func (s *Server) handleBlockQuery(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		writeError(w, core.WrapStructural("malformed height"))
		return
	}
	tip := s.node.Tip
	if height != tip.Height {
		writeError(w, core.WrapState("block not retained"))
		return
	}
	writeJSON(w, http.StatusOK, blockQueryResponse{
		Height:           tip.Height,
		PreviousHash:     hex.EncodeToString(tip.PreviousHash[:]),
		StateRoot:        hex.EncodeToString(tip.StateRoot[:]),
		MerkleSpiralRoot: hex.EncodeToString(tip.MerkleSpiralRoot[:]),
		SlotNumber:       tip.SlotNumber,
		ValidatorAddress: tip.ValidatorAddress.String(),
		TxCount:          tip.TxCount,
	})
}

type validatorRegisterRequest struct {
	PublicKey   string `json:"public_key"`
	StakeQBT    uint64 `json:"stake_qbt"`
}

type validatorRegisterResponse struct {
	Address string `json:"address"`
}

func (s *Server) handleValidatorRegister(w http.ResponseWriter, r *http.Request) {
	var req validatorRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.WrapStructural("decode validator request: "+err.Error()))
		return
	}
	pubKey, err := hex.DecodeString(req.PublicKey)
	if err != nil {
		writeError(w, core.WrapStructural("malformed public_key"))
		return
	}
	addr := core.AddressFromPublicKey(pubKey)
	if err := s.node.Registry.Register(addr, pubKey, core.NewAmountQBT(req.StakeQBT), s.node.Tip.Height); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, validatorRegisterResponse{Address: addr.String()})
}

type nodeStatusResponse struct {
	Network         string `json:"network"`
	Height          uint64 `json:"height"`
	SlotNumber      uint64 `json:"slot_number"`
	TipHash         string `json:"tip_hash"`
	ActiveValidators int   `json:"active_validators"`
	MempoolSize     int    `json:"mempool_size"`
}

func (s *Server) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	tip := s.node.Tip
	tipHash := tip.HeaderHash()
	writeJSON(w, http.StatusOK, nodeStatusResponse{
		Network:          s.node.Network,
		Height:           tip.Height,
		SlotNumber:       tip.SlotNumber,
		TipHash:          hex.EncodeToString(tipHash[:]),
		ActiveValidators: len(s.node.Registry.Active()),
		MempoolSize:      s.node.Mempool.Len(),
	})
}

func addressFromHex(s string) (core.Address, error) { return core.AddressFromHexString(s) }
