package statestore

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

const accountPrefix = "account"

var heightKey = []byte("meta_height")

// Account is a ledger entry stored under the account prefix, encoded with
// msgpack.
type Account struct {
	Address string
	Balance uint64
	Nonce   uint64
}

func accountKey(address string) []byte {
	return []byte(fmt.Sprintf("%s_%s", accountPrefix, address))
}

func encodeAccount(a *Account) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, new(codec.MsgpackHandle))
	if err := enc.Encode(a); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeAccount(data []byte) (*Account, error) {
	var a Account
	dec := codec.NewDecoderBytes(data, new(codec.MsgpackHandle))
	if err := dec.Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Store persists ledger state in a Badger database. Writes go through the
// state module's run loop only; reads may happen concurrently from any task
// through a ReadHandle.
type Store struct {
	db     *badger.DB
	path   string
	logger *logrus.Entry
}

// NewStore opens (or creates) a Badger database at path.
func NewStore(path string, logger *logrus.Entry) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state database: %v", err)
	}

	return &Store{
		db:     db,
		path:   path,
		logger: logger.WithField("this", "statestore"),
	}, nil
}

// Path returns the database directory.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReadHandle returns a read-only view of the store, designed to be shared
// across tasks for concurrent lock-free reads.
func (s *Store) ReadHandle() ReadHandle {
	return ReadHandle{db: s.db}
}

// Credit adds amount to the account's balance, creating the account if
// needed.
func (s *Store) Credit(address string, amount uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		account, err := getAccount(txn, address)
		if err != nil {
			return err
		}
		if account == nil {
			account = &Account{Address: address}
		}

		account.Balance += amount

		return putAccount(txn, account)
	})
}

// Transfer moves amount from one account to another and bumps the sender's
// nonce. It fails without side effects when the sender's balance is
// insufficient.
func (s *Store) Transfer(sender, receiver string, amount uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		from, err := getAccount(txn, sender)
		if err != nil {
			return err
		}
		if from == nil || from.Balance < amount {
			return fmt.Errorf("insufficient balance on %s", sender)
		}

		to, err := getAccount(txn, receiver)
		if err != nil {
			return err
		}
		if to == nil {
			to = &Account{Address: receiver}
		}

		from.Balance -= amount
		from.Nonce++
		to.Balance += amount

		if err := putAccount(txn, from); err != nil {
			return err
		}
		return putAccount(txn, to)
	})
}

// IncrementHeight bumps the stored chain height and returns the new value.
func (s *Store) IncrementHeight() (uint64, error) {
	var height uint64

	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := getHeight(txn)
		if err != nil {
			return err
		}

		height = current + 1

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], height)
		return txn.Set(heightKey, buf[:])
	})

	return height, err
}

func getAccount(txn *badger.Txn, address string) (*Account, error) {
	item, err := txn.Get(accountKey(address))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var account *Account
	err = item.Value(func(val []byte) error {
		account, err = decodeAccount(val)
		return err
	})

	return account, err
}

func putAccount(txn *badger.Txn, account *Account) error {
	data, err := encodeAccount(account)
	if err != nil {
		return err
	}
	return txn.Set(accountKey(account.Address), data)
}

func getHeight(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(heightKey)
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var height uint64
	err = item.Value(func(val []byte) error {
		height = binary.BigEndian.Uint64(val)
		return nil
	})

	return height, err
}

// ReadHandle is a read-only view over the state database. It only ever
// opens read transactions, so any number of them can be used concurrently
// with the state module's writes.
type ReadHandle struct {
	db *badger.DB
}

// GetAccount returns the account stored under address, or nil when it does
// not exist.
func (h ReadHandle) GetAccount(address string) (*Account, error) {
	var account *Account

	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		account, err = getAccount(txn, address)
		return err
	})

	return account, err
}

// Height returns the current chain height.
func (h ReadHandle) Height() (uint64, error) {
	var height uint64

	err := h.db.View(func(txn *badger.Txn) error {
		var err error
		height, err = getHeight(txn)
		return err
	})

	return height, err
}

// Accounts returns all accounts in the store.
func (h ReadHandle) Accounts() ([]*Account, error) {
	var accounts []*Account

	err := h.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(accountPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				account, err := decodeAccount(val)
				if err != nil {
					return err
				}
				accounts = append(accounts, account)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return accounts, err
}
