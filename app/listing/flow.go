package listing

import (
	"context"
	"sync"

	"lootexchange/app/models"
	"lootexchange/pkg/wyvern"
)

// Flow is the state machine of one listing. Results of a cancelled flow
// are dropped, every applied change is published in order.
type Flow struct {
	mu      sync.Mutex
	listing *models.Listing
	closed  bool
	cancel  context.CancelFunc
	publish func(*models.Listing)
}

func newFlow(listing *models.Listing, cancel context.CancelFunc, publish func(*models.Listing)) *Flow {
	return &Flow{
		listing: listing.Copy(),
		cancel:  cancel,
		publish: publish,
	}
}

// Snapshot returns a copy of the current state.
func (f *Flow) Snapshot() *models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listing.Copy()
}

func (f *Flow) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// update applies fn unless the flow is closed and publishes the result.
func (f *Flow) update(fn func(l *models.Listing)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	fn(f.listing)
	if f.listing.IsFinished() {
		f.closed = true
	}
	if f.publish != nil {
		f.publish(f.listing.Copy())
	}
	return true
}

// begin marks a stage pending. A stage only starts after the previous one
// succeeded.
func (f *Flow) begin(stage models.Stage) bool {
	f.mu.Lock()
	ready := stage == models.StageProxy || f.listing.Steps[stage-1].IsSuccess()
	f.mu.Unlock()
	if !ready {
		return false
	}
	return f.update(func(l *models.Listing) {
		l.Steps[stage] = models.Step{Status: models.StepUndetermined, Pending: true}
	})
}

// recordTx attaches the explorer link of the transaction a pending stage
// waits for.
func (f *Flow) recordTx(stage models.Stage, tx string) bool {
	return f.update(func(l *models.Listing) {
		l.Steps[stage].Tx = tx
	})
}

func (f *Flow) succeed(stage models.Stage) bool {
	return f.update(func(l *models.Listing) {
		l.Steps[stage].Status = models.StepSuccess
		l.Steps[stage].Pending = false
		l.Steps[stage].Error = ""
		if stage == models.StageCount-1 {
			l.Status = models.ListingStatusCompleted
		}
	})
}

func (f *Flow) fail(stage models.Stage, message string) bool {
	return f.update(func(l *models.Listing) {
		l.Steps[stage] = models.Step{Status: models.StepFailure, Error: message}
		l.Status = models.ListingStatusFailed
	})
}

func (f *Flow) attachOrder(order *wyvern.Order) bool {
	return f.update(func(l *models.Listing) {
		l.SellOrder = order
	})
}

// Cancel stops the flow. In-flight operations are abandoned and their
// results are never applied. It returns false for finished flows.
func (f *Flow) Cancel() bool {
	return f.stop(func(l *models.Listing) {
		for i := range l.Steps {
			l.Steps[i].Pending = false
		}
		l.Status = models.ListingStatusCancelled
	})
}

// Interrupt stops the flow as failed, the step it stopped at reports message.
func (f *Flow) Interrupt(message string) bool {
	return f.stop(func(l *models.Listing) {
		l.Steps.Interrupt(message)
		l.Status = models.ListingStatusFailed
	})
}

func (f *Flow) stop(fn func(l *models.Listing)) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.closed = true
	f.cancel()

	fn(f.listing)
	if f.publish != nil {
		f.publish(f.listing.Copy())
	}
	return true
}
