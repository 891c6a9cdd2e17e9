// Package book binds an in-memory ledger graph to a persistent store.
//
// Callers stage mutations with Add, Update and Delete, then call Commit. Commit
// validates every transaction the staged changes touch and writes the whole
// batch atomically, or rejects it and leaves the store untouched. Staged edits
// survive a rejected commit until they are fixed or discarded with Rollback.
package book

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"ledger/internal/logger"
	"ledger/internal/store"
)

// AccountSeparator joins account names into a full name.
const AccountSeparator = ":"

// Options control how a book is opened.
type Options struct {
	// ReadOnly books accept in-memory edits but refuse to commit them.
	ReadOnly bool
	// OpenIfLocked opens the book even when another process holds its lock.
	OpenIfLocked bool

	// Hostname and PID identify this process in the lock table. They default
	// to os.Hostname and os.Getpid.
	Hostname string
	PID      int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			o.Hostname = h
		} else {
			o.Hostname = "localhost"
		}
	}
	if o.PID == 0 {
		o.PID = os.Getpid()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Book is an open ledger. All methods are safe for concurrent use; every
// operation, including the whole of Commit, runs under one mutex.
type Book struct {
	mu    sync.Mutex
	store *store.Store
	opts  Options
	log   *zap.SugaredLogger

	holdsLock bool
	closed    bool

	// live holds the graph as edited by the caller, clean the graph as last
	// loaded from or written to the store.
	live  *graph
	clean *graph
	dirty map[string]*change
}

func newBook(st *store.Store, opts Options) *Book {
	opts.defaults()
	return &Book{
		store: st,
		opts:  opts,
		log:   logger.Named("book"),
		live:  newGraph(),
		clean: newGraph(),
		dirty: make(map[string]*change),
	}
}

// ID returns the book record's ID.
func (b *Book) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live.book.ID
}

// ReadOnly reports whether the book refuses to commit.
func (b *Book) ReadOnly() bool {
	return b.opts.ReadOnly
}

// UseTradingAccounts reports whether transactions are balanced per commodity
// through trading accounts.
func (b *Book) UseTradingAccounts() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live.book.UseTradingAccounts
}

// SetUseTradingAccounts stages a change of the trading-accounts flag.
func (b *Book) SetUseTradingAccounts(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live.book.UseTradingAccounts == on {
		return
	}
	b.live.book.UseTradingAccounts = on
	b.mark(b.live.book.ID, kindBook, opUpdate)
}

// RootAccountID returns the handle of the root account.
func (b *Book) RootAccountID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rootID()
}

func (b *Book) rootID() string {
	if b.live.book.RootAccountID == nil {
		return ""
	}
	return *b.live.book.RootAccountID
}

// IsSaved reports whether there are no staged changes.
func (b *Book) IsSaved() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dirty) == 0
}

func (b *Book) now() time.Time {
	return b.opts.Now()
}
