package service

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/mempool"
	"github.com/vertexchain/vertex/src/statestore"
)

// NodeInfo is the static node identity reported by the /info endpoint.
type NodeInfo struct {
	ID         string `json:"id"`
	Moniker    string `json:"moniker"`
	NodeType   string `json:"type"`
	GossipAddr string `json:"gossip_addr"`
}

// Service exposes read-only node information over plain HTTP. It is the
// human-facing counterpart of the JSON-RPC server: /info, /mempool and
// /state.
type Service struct {
	sync.Mutex

	ln          net.Listener
	srv         *http.Server
	info        NodeInfo
	mempoolRead *mempool.ReadHandle
	stateRead   *statestore.ReadHandle
	logger      *logrus.Entry
}

// NewService binds the service listener and registers the handlers.
func NewService(
	bindAddr string,
	info NodeInfo,
	mempoolRead *mempool.ReadHandle,
	stateRead *statestore.ReadHandle,
	logger *logrus.Entry,
) (*Service, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("bind service listener %q: %v", bindAddr, err)
	}

	service := &Service{
		ln:          ln,
		info:        info,
		mempoolRead: mempoolRead,
		stateRead:   stateRead,
		logger:      logger.WithField("this", "service"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/info", service.makeHandler(service.GetInfo))
	mux.HandleFunc("/mempool", service.makeHandler(service.GetMempool))
	mux.HandleFunc("/state", service.makeHandler(service.GetState))
	service.srv = &http.Server{Handler: mux}

	return service, nil
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Addr returns the listener's resolved address.
func (s *Service) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the service is closed. This is a
// blocking call.
func (s *Service) Serve() {
	s.logger.WithField("addr", s.Addr().String()).Debug("serving node info API")

	if err := s.srv.Serve(s.ln); err != http.ErrServerClosed {
		s.logger.WithError(err).Error("service stopped")
	}
}

// Close shuts the listener down and interrupts Serve.
func (s *Service) Close() error {
	return s.srv.Close()
}

// GetInfo returns the node's identity.
func (s *Service) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.info, s.logger)
}

// GetMempool returns the pending transaction digests.
func (s *Service) GetMempool(w http.ResponseWriter, r *http.Request) {
	if s.mempoolRead == nil {
		http.Error(w, "mempool disabled on this node", http.StatusNotFound)
		return
	}

	snapshot := s.mempoolRead.Snapshot()
	digests := make([]string, 0, len(snapshot))
	for digest := range snapshot {
		digests = append(digests, digest)
	}

	writeJSON(w, map[string]interface{}{"size": len(digests), "txns": digests}, s.logger)
}

// GetState returns all accounts and the chain height.
func (s *Service) GetState(w http.ResponseWriter, r *http.Request) {
	if s.stateRead == nil {
		http.Error(w, "state store disabled on this node", http.StatusNotFound)
		return
	}

	accounts, err := s.stateRead.Accounts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	height, err := s.stateRead.Height()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"height": height, "accounts": accounts}, s.logger)
}

func writeJSON(w http.ResponseWriter, v interface{}, logger *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("encoding response")
	}
}
