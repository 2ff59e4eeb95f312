package listing

import (
	"testing"

	"lootexchange/app/models"
)

func newTestFlow() (*Flow, *[]*models.Listing, *bool) {
	var published []*models.Listing
	cancelled := false
	listing := &models.Listing{Status: models.ListingStatusPending, Steps: models.NewSteps()}
	flow := newFlow(listing, func() { cancelled = true }, func(l *models.Listing) {
		published = append(published, l)
	})
	return flow, &published, &cancelled
}

func TestFlowStageOrder(t *testing.T) {
	flow, published, _ := newTestFlow()

	if flow.begin(models.StageApproval) {
		t.Error("approval must not start before the proxy step succeeded")
	}
	if !flow.begin(models.StageProxy) || !flow.succeed(models.StageProxy) {
		t.Fatal("proxy step must run")
	}
	if !flow.begin(models.StageApproval) {
		t.Error("approval must start after the proxy step")
	}
	if len(*published) != 3 {
		t.Errorf("every change must be published, have: %d", len(*published))
	}

	pending := (*published)[0].Steps[models.StageProxy]
	if !pending.Pending || pending.Status != models.StepUndetermined {
		t.Errorf("wrong pending step: %+v", pending)
	}
	done := (*published)[1].Steps[models.StageProxy]
	if done.Pending || !done.IsSuccess() {
		t.Errorf("wrong finished step: %+v", done)
	}
}

func TestFlowCompletion(t *testing.T) {
	flow, _, _ := newTestFlow()
	for stage := models.StageProxy; stage < models.StageCount; stage++ {
		if !flow.begin(stage) || !flow.succeed(stage) {
			t.Fatalf("stage %s must run", stage)
		}
	}
	if listing := flow.Snapshot(); listing.Status != models.ListingStatusCompleted {
		t.Errorf("wrong status: %s", listing.Status)
	}
	if !flow.IsClosed() {
		t.Error("completed flow must be closed")
	}
	if flow.Cancel() {
		t.Error("completed flow cannot be cancelled")
	}
}

func TestFlowFailure(t *testing.T) {
	flow, _, _ := newTestFlow()
	flow.begin(models.StageProxy)
	flow.fail(models.StageProxy, MsgNotOwner)

	listing := flow.Snapshot()
	if listing.Status != models.ListingStatusFailed {
		t.Errorf("wrong status: %s", listing.Status)
	}
	step := listing.Steps[models.StageProxy]
	if step.Pending || step.Status != models.StepFailure || step.Error != MsgNotOwner {
		t.Errorf("wrong step: %+v", step)
	}
	if flow.begin(models.StageApproval) {
		t.Error("failed flow must not go on")
	}
}

func TestFlowCancel(t *testing.T) {
	flow, published, cancelled := newTestFlow()
	flow.begin(models.StageProxy)
	flow.recordTx(models.StageProxy, "https://etherscan.io/tx/0x1")

	if !flow.Cancel() {
		t.Fatal("running flow must be cancelled")
	}
	if !*cancelled {
		t.Error("cancel must stop in-flight operations")
	}
	count := len(*published)

	if flow.succeed(models.StageProxy) || flow.recordTx(models.StageProxy, "0x2") || flow.attachOrder(nil) {
		t.Error("results after the cancellation must be dropped")
	}
	if len(*published) != count {
		t.Error("dropped results must not be published")
	}

	listing := flow.Snapshot()
	if listing.Status != models.ListingStatusCancelled || listing.Steps[models.StageProxy].Pending {
		t.Errorf("wrong cancelled listing: %+v", listing)
	}
	if listing.Steps[models.StageProxy].Tx != "https://etherscan.io/tx/0x1" {
		t.Error("the sent transaction must stay visible")
	}
	if flow.Cancel() {
		t.Error("second cancel must be a no-op")
	}
}

func TestFailureMessage(t *testing.T) {
	if msg := failureMessage(&stepError{message: MsgNotOwner}, MsgProxyFailed); msg != MsgNotOwner {
		t.Errorf("wrong message: %s", msg)
	}
	if msg := failureMessage(errCancelled, MsgProxyFailed); msg != MsgProxyFailed {
		t.Errorf("wrong message: %s", msg)
	}
}

func TestFlowInterrupt(t *testing.T) {
	flow, published, cancelled := newTestFlow()
	flow.begin(models.StageProxy)

	if !flow.Interrupt(msgInterrupted) {
		t.Fatal("running flow must be interrupted")
	}
	if !*cancelled {
		t.Error("in-flight operations must be cancelled")
	}
	last := (*published)[len(*published)-1]
	proxy := last.Steps[models.StageProxy]
	if last.Status != models.ListingStatusFailed || proxy.Pending || proxy.Error != msgInterrupted {
		t.Errorf("wrong interrupted listing: %s %+v", last.Status, proxy)
	}
	if flow.succeed(models.StageProxy) || flow.Interrupt(msgInterrupted) || flow.Cancel() {
		t.Error("interrupted flow must stay closed")
	}
}
