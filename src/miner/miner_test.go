package miner

import (
	"fmt"
	"testing"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/events"
)

func TestCutsBlockAtThreshold(t *testing.T) {
	eventsTx := make(chan events.DirectedEvent, 10)

	m := NewModule(ModuleConfig{
		NodeID:    "0xMINER",
		BlockSize: 2,
		EventsTx:  eventsTx,
		Logger:    common.NewTestEntry(t),
	})

	if _, err := m.Handle(events.NewEvent(events.TxnValidated, []byte("tx1"))); err != nil {
		t.Fatal(err)
	}

	if len(eventsTx) != 0 {
		t.Fatal("block cut before threshold")
	}
	if m.PendingCount() != 1 {
		t.Fatalf("got %d pending, want 1", m.PendingCount())
	}

	if _, err := m.Handle(events.NewEvent(events.TxnValidated, []byte("tx2"))); err != nil {
		t.Fatal(err)
	}

	if len(eventsTx) != 2 {
		t.Fatalf("got %d published events, want 2", len(eventsTx))
	}

	storage := <-eventsTx
	if storage.Topic != events.Storage || storage.Event.Kind != events.BlockConfirmed {
		t.Fatalf("got (%v, %v), want (Storage, BlockConfirmed)", storage.Topic, storage.Event.Kind)
	}

	network := <-eventsTx
	if network.Topic != events.Network || network.Event.Kind != events.BlockConfirmed {
		t.Fatalf("got (%v, %v), want (Network, BlockConfirmed)", network.Topic, network.Event.Kind)
	}

	block, err := DecodeBlock(storage.Event.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if block.Miner != "0xMINER" || len(block.Txns) != 2 {
		t.Fatalf("got block miner=%q txns=%d", block.Miner, len(block.Txns))
	}

	if m.PendingCount() != 0 {
		t.Fatalf("pending not reset after block: %d", m.PendingCount())
	}
}

func TestIgnoresDuplicateTxns(t *testing.T) {
	m := NewModule(ModuleConfig{
		NodeID:    "0xMINER",
		BlockSize: 10,
		EventsTx:  make(chan events.DirectedEvent, 10),
		Logger:    common.NewTestEntry(t),
	})

	for i := 0; i < 3; i++ {
		if _, err := m.Handle(events.NewEvent(events.TxnValidated, []byte("same"))); err != nil {
			t.Fatal(err)
		}
	}

	if m.PendingCount() != 1 {
		t.Fatalf("got %d pending, want 1", m.PendingCount())
	}
}

func TestStop(t *testing.T) {
	m := NewModule(ModuleConfig{
		NodeID:   "0xMINER",
		EventsTx: make(chan events.DirectedEvent, 1),
		Logger:   common.NewTestEntry(t),
	})

	// Buffer a few txns below the threshold, then stop.
	for i := 0; i < 3; i++ {
		payload := []byte(fmt.Sprintf("tx%d", i))
		if _, err := m.Handle(events.NewEvent(events.TxnValidated, payload)); err != nil {
			t.Fatal(err)
		}
	}

	state, err := m.Handle(events.StopEvent())
	if err != nil {
		t.Fatal(err)
	}
	if state != actor.Terminating {
		t.Fatalf("got state %v, want Terminating", state)
	}
}
