package statestore

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

func newTestStore(t *testing.T) (*Store, func()) {
	dir, err := ioutil.TempDir("", "vertex-statestore")
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(dir, common.NewTestEntry(t))
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}

	return store, func() {
		store.Close()
		os.RemoveAll(dir)
	}
}

func TestTransfer(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.Credit("alice", 100); err != nil {
		t.Fatal(err)
	}

	if err := store.Transfer("alice", "bob", 40); err != nil {
		t.Fatal(err)
	}

	rh := store.ReadHandle()

	alice, err := rh.GetAccount("alice")
	if err != nil {
		t.Fatal(err)
	}
	if alice.Balance != 60 || alice.Nonce != 1 {
		t.Fatalf("got alice balance=%d nonce=%d, want 60/1", alice.Balance, alice.Nonce)
	}

	bob, err := rh.GetAccount("bob")
	if err != nil {
		t.Fatal(err)
	}
	if bob.Balance != 40 {
		t.Fatalf("got bob balance=%d, want 40", bob.Balance)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.Credit("alice", 10); err != nil {
		t.Fatal(err)
	}

	if err := store.Transfer("alice", "bob", 40); err == nil {
		t.Fatal("expected insufficient balance error")
	}

	// No partial side effects.
	alice, err := store.ReadHandle().GetAccount("alice")
	if err != nil {
		t.Fatal(err)
	}
	if alice.Balance != 10 || alice.Nonce != 0 {
		t.Fatalf("transfer failure left side effects: balance=%d nonce=%d", alice.Balance, alice.Nonce)
	}
}

func TestHeight(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	rh := store.ReadHandle()

	height, err := rh.Height()
	if err != nil {
		t.Fatal(err)
	}
	if height != 0 {
		t.Fatalf("got initial height %d, want 0", height)
	}

	for i := 1; i <= 3; i++ {
		if _, err := store.IncrementHeight(); err != nil {
			t.Fatal(err)
		}
	}

	height, err = rh.Height()
	if err != nil {
		t.Fatal(err)
	}
	if height != 3 {
		t.Fatalf("got height %d, want 3", height)
	}
}

func TestAccounts(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	for _, addr := range []string{"alice", "bob", "carol"} {
		if err := store.Credit(addr, 1); err != nil {
			t.Fatal(err)
		}
	}

	accounts, err := store.ReadHandle().Accounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
}

func TestModuleAppliesValidatedTxn(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.Credit("alice", 100); err != nil {
		t.Fatal(err)
	}

	m := NewModule(store, ModuleConfig{
		EventsTx: make(chan events.DirectedEvent, 10),
		Logger:   common.NewTestEntry(t),
	})

	txn := &mempool.Txn{
		Sender:    "alice",
		Receiver:  "bob",
		Amount:    25,
		Nonce:     1,
		Timestamp: time.Now().UnixNano(),
		Signature: []byte{1},
	}
	data, err := txn.Encode()
	if err != nil {
		t.Fatal(err)
	}

	state, err := m.Handle(events.NewEvent(events.TxnValidated, data))
	if err != nil {
		t.Fatal(err)
	}
	if state != actor.Running {
		t.Fatalf("got state %v, want Running", state)
	}

	bob, err := m.ReadHandle().GetAccount("bob")
	if err != nil {
		t.Fatal(err)
	}
	if bob == nil || bob.Balance != 25 {
		t.Fatalf("validated transaction not applied: %+v", bob)
	}
}
