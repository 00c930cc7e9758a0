package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/common"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

func newTestServer(t *testing.T, eventsTx chan events.DirectedEvent) *Server {
	pool := mempool.NewPool()
	rh := pool.ReadHandle()

	s, err := NewServer(ServerConfig{
		BindAddr:    "127.0.0.1:0",
		NodeID:      "0xNODE",
		NodeType:    "full",
		EventsTx:    eventsTx,
		MempoolRead: &rh,
		Logger:      common.NewTestEntry(t),
	})
	if err != nil {
		t.Fatal(err)
	}

	go s.Serve()

	return s
}

func call(t *testing.T, s *Server, method string, params interface{}) response {
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	})
	if err != nil {
		t.Fatal(err)
	}

	url := fmt.Sprintf("http://%s/", s.Addr().String())
	httpResp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer httpResp.Body.Close()

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestServerResolvesEphemeralPort(t *testing.T) {
	s := newTestServer(t, make(chan events.DirectedEvent, 10))
	defer s.Close()

	if s.Addr().String() == "127.0.0.1:0" {
		t.Fatal("listener address was not resolved")
	}
}

func TestGetNodeType(t *testing.T) {
	s := newTestServer(t, make(chan events.DirectedEvent, 10))
	defer s.Close()

	resp := call(t, s, "getNodeType", nil)
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	if result["type"] != "full" || result["id"] != "0xNODE" {
		t.Fatalf("got %v", result)
	}
}

func TestCreateTxnPublishes(t *testing.T) {
	eventsTx := make(chan events.DirectedEvent, 10)
	s := newTestServer(t, eventsTx)
	defer s.Close()

	resp := call(t, s, "createTxn", map[string]interface{}{
		"sender":    "alice",
		"receiver":  "bob",
		"amount":    5,
		"nonce":     1,
		"signature": "0102",
	})
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}

	if len(eventsTx) != 2 {
		t.Fatalf("got %d published events, want 2", len(eventsTx))
	}

	storage := <-eventsTx
	if storage.Topic != events.Storage || storage.Event.Kind != events.NewTxn {
		t.Fatalf("got (%v, %v), want (Storage, NewTxn)", storage.Topic, storage.Event.Kind)
	}

	network := <-eventsTx
	if network.Topic != events.Network || network.Event.Kind != events.NewTxn {
		t.Fatalf("got (%v, %v), want (Network, NewTxn)", network.Topic, network.Event.Kind)
	}

	txn, err := mempool.DecodeTxn(storage.Event.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if txn.Sender != "alice" || txn.Amount != 5 {
		t.Fatalf("got txn %+v", txn)
	}
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t, make(chan events.DirectedEvent, 10))
	defer s.Close()

	resp := call(t, s, "nonsense", nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("got %+v, want method-not-found", resp.Error)
	}
}

func TestModuleStopClosesServer(t *testing.T) {
	s := newTestServer(t, make(chan events.DirectedEvent, 10))

	m := NewModule(s, common.NewTestEntry(t))

	state, err := m.Handle(events.StopEvent())
	if err != nil {
		t.Fatal(err)
	}
	if state != actor.Terminating {
		t.Fatalf("got state %v, want Terminating", state)
	}

	url := fmt.Sprintf("http://%s/", s.Addr().String())
	if _, err := http.Post(url, "application/json", bytes.NewReader(nil)); err == nil {
		t.Fatal("server still accepting connections after Stop")
	}
}
