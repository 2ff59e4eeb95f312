package models

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"lootexchange/pkg/wyvern"
)

// step outcomes
const (
	StepUndetermined = "undetermined"
	StepSuccess      = "success"
	StepFailure      = "failure"
)

// listing statuses
const (
	ListingStatusPending   = "pending"
	ListingStatusCompleted = "completed"
	ListingStatusFailed    = "failed"
	ListingStatusCancelled = "cancelled"
)

type Stage int

const (
	StageProxy Stage = iota
	StageApproval
	StageOrder

	StageCount = 3
)

var stageNames = [StageCount]string{"proxy", "approval", "order"}

func (s Stage) String() string {
	if s < 0 || int(s) >= StageCount {
		return "unknown"
	}
	return stageNames[s]
}

type Step struct {
	Status  string `json:"status"`
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"`
	Tx      string `json:"tx,omitempty"`
}

func NewStep() Step {
	return Step{Status: StepUndetermined}
}

func (s Step) IsSuccess() bool {
	return s.Status == StepSuccess
}

func (s Step) IsDetermined() bool {
	return s.Status == StepSuccess || s.Status == StepFailure
}

type Steps [StageCount]Step

func NewSteps() Steps {
	var steps Steps
	for i := range steps {
		steps[i] = NewStep()
	}
	return steps
}

// Interrupt fails the step in progress with message. When no step is
// pending the first undetermined one fails.
func (s *Steps) Interrupt(message string) {
	target := -1
	for i := range s {
		if s[i].Pending {
			target = i
			break
		}
	}
	if target < 0 {
		for i := range s {
			if !s[i].IsDetermined() {
				target = i
				break
			}
		}
	}
	if target >= 0 {
		s[target] = Step{Status: StepFailure, Error: message}
	}
}

type NewListing struct {
	TokenID        string           `json:"token_id,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	ExpirationTime int64            `json:"expiration_time,omitempty"`
	RequestedBy    string           `json:"-"` // filled from access token
}

func (l *NewListing) Validate() error {
	if l.RequestedBy == "" {
		return errors.New("empty requester; it must be set on server during the processing, contact the support")
	}

	tokenID, ok := new(big.Int).SetString(strings.TrimSpace(l.TokenID), 10)
	if !ok || tokenID.Sign() < 0 {
		return errors.New("invalid token id provided")
	}

	if l.Price != nil && !l.Price.IsPositive() {
		return errors.New("price must be positive")
	}

	if l.ExpirationTime < 0 {
		return errors.New("invalid expiration time provided")
	}

	return nil
}

func (l *NewListing) TokenIDBig() *big.Int {
	tokenID, _ := new(big.Int).SetString(strings.TrimSpace(l.TokenID), 10)
	return tokenID
}

type Listing struct {
	Base
	TokenID        string        `json:"token_id"`
	Collection     string        `json:"collection"`
	Signer         string        `json:"signer"`
	RequestedBy    string        `json:"requested_by"`
	Price          string        `json:"price"`
	ExpirationTime int64         `json:"expiration_time"`
	Status         string        `json:"status"`
	Steps          Steps         `json:"steps"`
	SellOrder      *wyvern.Order `json:"sell_order,omitempty"`
}

// Copy returns a snapshot safe to hand out while the flow goes on.
// The sell order is immutable once attached.
func (l *Listing) Copy() *Listing {
	cp := *l
	return &cp
}

func (l *Listing) IsFinished() bool {
	return l.Status != ListingStatusPending
}

type ListingFilter struct {
	ID          string `json:"-"` // filled from path param
	RequestedBy string `json:"-"` // filled from access token
}

func (f *ListingFilter) Validate() error {
	if f.RequestedBy == "" {
		return errors.New("empty requester; it must be set on server during the processing, contact the support")
	}
	return nil
}

type ListingList struct {
	Listings []*Listing `json:"listings"`
	Meta     *ListMeta  `json:"meta"`
}
