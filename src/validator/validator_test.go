package validator

import (
	"testing"
	"time"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

func encodedTxn(t *testing.T, txn *mempool.Txn) []byte {
	data, err := txn.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func collectVerdicts(eventsTx chan events.DirectedEvent) []events.DirectedEvent {
	var out []events.DirectedEvent
	for {
		select {
		case de := <-eventsTx:
			out = append(out, de)
		default:
			return out
		}
	}
}

func TestValidTxn(t *testing.T) {
	eventsTx := make(chan events.DirectedEvent, 10)
	m := NewModule(ModuleConfig{EventsTx: eventsTx, Logger: common.NewTestEntry(t)})

	data := encodedTxn(t, &mempool.Txn{
		Sender:    "alice",
		Receiver:  "bob",
		Amount:    5,
		Nonce:     1,
		Timestamp: time.Now().UnixNano(),
		Signature: []byte{1, 2, 3},
	})

	state, err := m.Handle(events.NewEvent(events.NewTxn, data))
	if err != nil {
		t.Fatal(err)
	}
	if state != actor.Running {
		t.Fatalf("got state %v, want Running", state)
	}

	verdicts := collectVerdicts(eventsTx)
	if len(verdicts) != 2 {
		t.Fatalf("got %d published events, want 2", len(verdicts))
	}

	if verdicts[0].Topic != events.Storage || verdicts[0].Event.Kind != events.TxnValidated {
		t.Fatalf("got (%v, %v), want (Storage, TxnValidated)", verdicts[0].Topic, verdicts[0].Event.Kind)
	}
	if verdicts[1].Topic != events.Consensus || verdicts[1].Event.Kind != events.TxnValidated {
		t.Fatalf("got (%v, %v), want (Consensus, TxnValidated)", verdicts[1].Topic, verdicts[1].Event.Kind)
	}
}

func TestInvalidTxns(t *testing.T) {
	cases := []struct {
		name string
		txn  *mempool.Txn
	}{
		{"missing parties", &mempool.Txn{Amount: 1, Signature: []byte{1}}},
		{"self send", &mempool.Txn{Sender: "a", Receiver: "a", Amount: 1, Signature: []byte{1}}},
		{"zero amount", &mempool.Txn{Sender: "a", Receiver: "b", Signature: []byte{1}}},
		{"unsigned", &mempool.Txn{Sender: "a", Receiver: "b", Amount: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eventsTx := make(chan events.DirectedEvent, 10)
			m := NewModule(ModuleConfig{EventsTx: eventsTx, Logger: common.NewTestEntry(t)})

			if _, err := m.Handle(events.NewEvent(events.NewTxn, encodedTxn(t, tc.txn))); err != nil {
				t.Fatal(err)
			}

			verdicts := collectVerdicts(eventsTx)
			if len(verdicts) != 1 {
				t.Fatalf("got %d published events, want 1", len(verdicts))
			}
			if verdicts[0].Topic != events.Storage || verdicts[0].Event.Kind != events.TxnRejected {
				t.Fatalf("got (%v, %v), want (Storage, TxnRejected)", verdicts[0].Topic, verdicts[0].Event.Kind)
			}
		})
	}
}

func TestUndecodableTxnRejected(t *testing.T) {
	eventsTx := make(chan events.DirectedEvent, 10)
	m := NewModule(ModuleConfig{EventsTx: eventsTx, Logger: common.NewTestEntry(t)})

	if _, err := m.Handle(events.NewEvent(events.NewTxn, []byte{0xff, 0x00, 0x01})); err != nil {
		t.Fatal(err)
	}

	verdicts := collectVerdicts(eventsTx)
	if len(verdicts) != 1 || verdicts[0].Event.Kind != events.TxnRejected {
		t.Fatalf("undecodable transaction was not rejected: %v", verdicts)
	}
}

func TestStop(t *testing.T) {
	m := NewModule(ModuleConfig{EventsTx: make(chan events.DirectedEvent, 1), Logger: common.NewTestEntry(t)})

	state, err := m.Handle(events.StopEvent())
	if err != nil {
		t.Fatal(err)
	}
	if state != actor.Terminating {
		t.Fatalf("got state %v, want Terminating", state)
	}
}
