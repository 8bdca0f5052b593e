package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/chaingate/go-chaingate/buildinfo"
	"github.com/chaingate/go-chaingate/internal/gateway"
	"github.com/chaingate/go-chaingate/pkg/ethereum"
	serviceerrors "github.com/chaingate/go-chaingate/pkg/errors"
	"github.com/chaingate/go-chaingate/pkg/gasprice"
	"github.com/chaingate/go-chaingate/pkg/tokens"
)

// Controller defines the HTTP handlers of the gateway api.
type Controller struct {
	gateway gateway.Gateway
}

// NewController creates a new Controller.
func NewController(g gateway.Gateway) *Controller {
	return &Controller{gateway: g}
}

type nonceRequest struct {
	PrivateKey string `json:"privateKey"`
}

type balancesRequest struct {
	PrivateKey string   `json:"privateKey"`
	Tokens     []string `json:"tokens"`
}

type allowancesRequest struct {
	PrivateKey string   `json:"privateKey"`
	Spender    string   `json:"spender"`
	Tokens     []string `json:"tokens"`
}

type approveRequest struct {
	PrivateKey string `json:"privateKey"`
	Spender    string `json:"spender"`
	Token      string `json:"token"`
	Amount     string `json:"amount,omitempty"`
	Nonce      *int64 `json:"nonce,omitempty"`
}

// AllocateNonce handles the POST /api/v1/nonce call.
func (c *Controller) AllocateNonce(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req nonceRequest
	if !decodeBody(ctx, rw, r, &req) {
		return
	}

	result, err := c.gateway.AllocateNonce(ctx, req.PrivateKey)
	if err != nil {
		writeError(ctx, rw, "allocate nonce", err)
		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// GetBalances handles the POST /api/v1/balances call.
func (c *Controller) GetBalances(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req balancesRequest
	if !decodeBody(ctx, rw, r, &req) {
		return
	}
	if len(req.Tokens) == 0 {
		writeJSON(rw, http.StatusBadRequest, serviceerrors.ServiceError{
			Message: "At least one token is required",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	result, err := c.gateway.GetBalances(ctx, req.PrivateKey, req.Tokens)
	if err != nil {
		writeError(ctx, rw, "get balances", err)
		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// GetAllowances handles the POST /api/v1/allowances call.
func (c *Controller) GetAllowances(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req allowancesRequest
	if !decodeBody(ctx, rw, r, &req) {
		return
	}
	if len(req.Tokens) == 0 {
		writeJSON(rw, http.StatusBadRequest, serviceerrors.ServiceError{
			Message: "At least one token is required",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	result, err := c.gateway.GetAllowances(ctx, req.PrivateKey, req.Spender, req.Tokens)
	if err != nil {
		writeError(ctx, rw, "get allowances", err)
		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// Approve handles the POST /api/v1/approve call.
func (c *Controller) Approve(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req approveRequest
	if !decodeBody(ctx, rw, r, &req) {
		return
	}

	result, err := c.gateway.Approve(ctx, gateway.ApproveParams{
		PrivateKey: req.PrivateKey,
		Spender:    req.Spender,
		Token:      req.Token,
		Amount:     req.Amount,
		Nonce:      req.Nonce,
	})
	if err != nil {
		writeError(ctx, rw, "approve", err)
		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// PollTransaction handles the GET /api/v1/poll/{txnHash} call.
func (c *Controller) PollTransaction(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	paramTxnHash := mux.Vars(r)["txnHash"]
	if _, err := common.ParseHexOrString(paramTxnHash); err != nil || len(common.FromHex(paramTxnHash)) != common.HashLength {
		log.Ctx(ctx).Error().Str("txnHash", paramTxnHash).Msg("invalid transaction hash")
		writeJSON(rw, http.StatusBadRequest, serviceerrors.ServiceError{
			Message: "Invalid transaction hash",
			Code:    "INVALID_REQUEST",
		})
		return
	}

	result, err := c.gateway.PollTransaction(ctx, common.HexToHash(paramTxnHash))
	if err != nil {
		writeError(ctx, rw, "poll transaction", err)
		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// Version returns git information of the running binary.
func (c *Controller) Version(rw http.ResponseWriter, _ *http.Request) {
	summary := buildinfo.GetSummary()
	writeJSON(rw, http.StatusOK, summary)
}

// HealthHandler serves health check requests.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeBody(ctx context.Context, rw http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("invalid request body")
		writeJSON(rw, http.StatusBadRequest, serviceerrors.ServiceError{
			Message: "Invalid request body",
			Code:    "INVALID_REQUEST",
		})
		return false
	}
	return true
}

func writeError(ctx context.Context, rw http.ResponseWriter, op string, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(ctx).Error().Err(err).Msg(op)
	} else {
		log.Ctx(ctx).Debug().Err(err).Msg(op)
	}
	writeJSON(rw, status, serviceerrors.ServiceError{Message: err.Error(), Code: code})
}

func classifyError(err error) (int, string) {
	var queryErr *ethereum.ChainQueryError
	var broadcastErr *ethereum.BroadcastError
	var signingErr *ethereum.SigningError

	switch {
	case errors.Is(err, tokens.ErrUnknownToken):
		return http.StatusNotFound, "UNKNOWN_TOKEN"
	case errors.Is(err, tokens.ErrInvalidAmount),
		errors.Is(err, gateway.ErrInvalidPrivateKey),
		errors.Is(err, gateway.ErrInvalidSpender):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, gasprice.ErrUnavailable):
		return http.StatusServiceUnavailable, "GAS_PRICE_UNAVAILABLE"
	case errors.As(err, &signingErr):
		return http.StatusBadRequest, "SIGNING_FAILED"
	case errors.As(err, &broadcastErr):
		return http.StatusBadGateway, "BROADCAST_FAILED"
	case errors.As(err, &queryErr):
		return http.StatusBadGateway, "CHAIN_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeJSON(rw http.ResponseWriter, status int, body interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(body)
}
