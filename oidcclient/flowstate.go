package oidcclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/webstorage"
)

const flowKeyPrefix = "oidc.flow:"

// FlowState is what an in-flight sign-in must remember across the
// provider redirect.
type FlowState struct {
	CodeVerifier string    `json:"code_verifier"`
	Nonce        string    `json:"nonce"`
	CreatedAt    time.Time `json:"created_at"`
}

// FlowStateRepo persists flow states keyed by the anti-forgery state
// parameter.
type FlowStateRepo struct {
	storage webstorage.Storage
	timeout time.Duration
	now     func() time.Time
}

func NewFlowStateRepo(storage webstorage.Storage, timeout time.Duration) *FlowStateRepo {
	return &FlowStateRepo{
		storage: storage,
		timeout: timeout,
		now:     time.Now,
	}
}

func (r *FlowStateRepo) key(state string) string {
	return flowKeyPrefix + state
}

// Save stores the flow state for state
func (r *FlowStateRepo) Save(ctx context.Context, state string, flow FlowState) error {
	if state == "" {
		return errors.ErrUnknownState
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("oidcclient: failed to marshal flow state: %w", err)
	}
	return r.storage.Set(ctx, r.key(state), string(data))
}

// Take reads and deletes the flow state for state. A state can only be
// redeemed once, and never after the flow timeout.
func (r *FlowStateRepo) Take(ctx context.Context, state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.ErrUnknownState
	}

	val, ok, err := r.storage.Get(ctx, r.key(state))
	if err != nil {
		return nil, errors.Wrapf(err, "oidcclient: read flow state")
	}
	if !ok {
		return nil, errors.ErrUnknownState
	}

	// Clean up state before use
	if err := r.storage.Remove(ctx, r.key(state)); err != nil {
		return nil, errors.Wrapf(err, "oidcclient: delete flow state")
	}

	var flow FlowState
	if err := json.Unmarshal([]byte(val), &flow); err != nil || flow.CodeVerifier == "" {
		return nil, errors.ErrUnknownState
	}

	if r.timeout > 0 && r.now().Sub(flow.CreatedAt) > r.timeout {
		return nil, errors.ErrFlowExpired
	}

	return &flow, nil
}
