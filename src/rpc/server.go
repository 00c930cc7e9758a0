package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
	"github.com/vertexchain/vertex/src/statestore"
)

// JSON-RPC 2.0 error codes used by the server.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

type respError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *respError  `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// ServerConfig carries the dependencies of the JSON-RPC server.
type ServerConfig struct {
	BindAddr    string
	NodeID      string
	NodeType    string
	EventsTx    chan<- events.DirectedEvent
	MempoolRead *mempool.ReadHandle
	StateRead   *statestore.ReadHandle
	Logger      *logrus.Entry
}

// Server exposes the node over a JSON-RPC 2.0 HTTP endpoint. The listener
// is bound at construction so that a bind failure is a startup fault and
// the resolved address is known before the node finishes starting.
type Server struct {
	ln  net.Listener
	srv *http.Server

	nodeID      string
	nodeType    string
	eventsTx    chan<- events.DirectedEvent
	mempoolRead *mempool.ReadHandle
	stateRead   *statestore.ReadHandle
	logger      *logrus.Entry
}

// NewServer binds the RPC listener and registers the handler.
func NewServer(cfg ServerConfig) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("bind rpc listener %q: %v", cfg.BindAddr, err)
	}

	s := &Server{
		ln:          ln,
		nodeID:      cfg.NodeID,
		nodeType:    cfg.NodeType,
		eventsTx:    cfg.EventsTx,
		mempoolRead: cfg.MempoolRead,
		stateRead:   cfg.StateRead,
		logger:      cfg.Logger.WithField("this", "jsonrpc"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRPC)
	s.srv = &http.Server{Handler: mux}

	return s, nil
}

// Addr returns the listener's resolved address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the server is closed. Blocking; run in
// its own goroutine.
func (s *Server) Serve() {
	s.logger.WithField("addr", s.Addr().String()).Debug("serving JSON-RPC")

	if err := s.srv.Serve(s.ln); err != http.ErrServerClosed {
		s.logger.WithError(err).Error("rpc server stopped")
	}
}

// Close shuts the listener down, interrupts Serve, and waits for in-flight
// requests to finish so that no handler publishes into the router after
// teardown.
func (s *Server) Close() error {
	return s.srv.Shutdown(context.Background())
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeResponse(w, response{JSONRPC: "2.0", Error: &respError{codeInvalidRequest, "POST required"}})
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, response{JSONRPC: "2.0", Error: &respError{codeParseError, err.Error()}})
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp response) {
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) dispatch(req *request) (interface{}, *respError) {
	switch req.Method {
	case "getNodeType":
		return map[string]string{"id": s.nodeID, "type": s.nodeType}, nil

	case "getMempool":
		if s.mempoolRead == nil {
			return nil, &respError{codeInternalError, "mempool disabled on this node"}
		}
		snapshot := s.mempoolRead.Snapshot()
		digests := make([]string, 0, len(snapshot))
		for digest := range snapshot {
			digests = append(digests, digest)
		}
		return map[string]interface{}{"size": len(digests), "txns": digests}, nil

	case "getFullState":
		if s.stateRead == nil {
			return nil, &respError{codeInternalError, "state store disabled on this node"}
		}
		accounts, err := s.stateRead.Accounts()
		if err != nil {
			return nil, &respError{codeInternalError, err.Error()}
		}
		height, err := s.stateRead.Height()
		if err != nil {
			return nil, &respError{codeInternalError, err.Error()}
		}
		return map[string]interface{}{"height": height, "accounts": accounts}, nil

	case "getAccount":
		if s.stateRead == nil {
			return nil, &respError{codeInternalError, "state store disabled on this node"}
		}
		var params []string
		if err := json.Unmarshal(req.Params, &params); err != nil || len(params) != 1 {
			return nil, &respError{codeInvalidParams, "expected [address]"}
		}
		account, err := s.stateRead.GetAccount(params[0])
		if err != nil {
			return nil, &respError{codeInternalError, err.Error()}
		}
		if account == nil {
			return nil, &respError{codeInvalidParams, "unknown account"}
		}
		return account, nil

	case "createTxn":
		return s.createTxn(req.Params)

	default:
		return nil, &respError{codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method)}
	}
}

type createTxnParams struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    uint64 `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// createTxn builds a transaction from the request, admits it into the
// node's pipeline and gossips it to peers.
func (s *Server) createTxn(raw json.RawMessage) (interface{}, *respError) {
	var params createTxnParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &respError{codeInvalidParams, err.Error()}
	}

	signature, err := hex.DecodeString(params.Signature)
	if err != nil {
		return nil, &respError{codeInvalidParams, "signature must be hex encoded"}
	}

	txn := &mempool.Txn{
		Sender:    params.Sender,
		Receiver:  params.Receiver,
		Amount:    params.Amount,
		Nonce:     params.Nonce,
		Timestamp: time.Now().UnixNano(),
		Signature: signature,
	}

	data, err := txn.Encode()
	if err != nil {
		return nil, &respError{codeInternalError, err.Error()}
	}

	digest := mempool.Digest(data)

	s.eventsTx <- events.DirectedEvent{
		Topic: events.Storage,
		Event: events.NewEvent(events.NewTxn, data),
	}
	s.eventsTx <- events.DirectedEvent{
		Topic: events.Network,
		Event: events.NewEvent(events.NewTxn, data),
	}

	s.logger.WithField("txn", digest).Debug("created transaction")

	return map[string]string{"txn": digest}, nil
}
