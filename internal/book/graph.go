package book

import (
	"sort"

	"ledger/internal/models"
	"ledger/internal/store"
)

// idSet is an unordered set of record IDs.
type idSet map[string]struct{}

func (s idSet) add(id string) { s[id] = struct{}{} }

// sorted returns the IDs in ascending order. UUIDv7 IDs sort by creation time.
func (s idSet) sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// graph is the in-memory arena of a book. Records reference each other only by
// ID; the index maps give constant-time navigation in both directions.
type graph struct {
	book models.Book

	commodities  map[string]*models.Commodity
	prices       map[string]*models.Price
	accounts     map[string]*models.Account
	lots         map[string]*models.Lot
	transactions map[string]*models.Transaction
	splits       map[string]*models.Split

	commodityByKey    map[string]string
	children          map[string]idSet
	splitsByAccount   map[string]idSet
	splitsByTxn       map[string]idSet
	splitsByLot       map[string]idSet
	pricesByCommodity map[string]idSet
}

func newGraph() *graph {
	return &graph{
		commodities:       make(map[string]*models.Commodity),
		prices:            make(map[string]*models.Price),
		accounts:          make(map[string]*models.Account),
		lots:              make(map[string]*models.Lot),
		transactions:      make(map[string]*models.Transaction),
		splits:            make(map[string]*models.Split),
		commodityByKey:    make(map[string]string),
		children:          make(map[string]idSet),
		splitsByAccount:   make(map[string]idSet),
		splitsByTxn:       make(map[string]idSet),
		splitsByLot:       make(map[string]idSet),
		pricesByCommodity: make(map[string]idSet),
	}
}

// graphFromSnapshot builds a graph from a store snapshot.
func graphFromSnapshot(snap *store.Snapshot) *graph {
	g := newGraph()
	if snap.Book != nil {
		g.book = *snap.Book
	}
	for i := range snap.Commodities {
		g.putCommodity(snap.Commodities[i])
	}
	for i := range snap.Prices {
		g.putPrice(snap.Prices[i])
	}
	for i := range snap.Accounts {
		g.putAccount(snap.Accounts[i])
	}
	for i := range snap.Lots {
		g.putLot(snap.Lots[i])
	}
	for i := range snap.Transactions {
		g.putTransaction(snap.Transactions[i])
	}
	for i := range snap.Splits {
		g.putSplit(snap.Splits[i])
	}
	return g
}

// clone deep-copies the graph.
func (g *graph) clone() *graph {
	c := newGraph()
	c.book = g.book
	for _, r := range g.commodities {
		c.putCommodity(*r)
	}
	for _, r := range g.prices {
		c.putPrice(*r)
	}
	for _, r := range g.accounts {
		c.putAccount(*r)
	}
	for _, r := range g.lots {
		c.putLot(*r)
	}
	for _, r := range g.transactions {
		c.putTransaction(*r)
	}
	for _, r := range g.splits {
		c.putSplit(*r)
	}
	return c
}

func link(index map[string]idSet, key, id string) {
	if key == "" {
		return
	}
	set, ok := index[key]
	if !ok {
		set = make(idSet)
		index[key] = set
	}
	set.add(id)
}

func unlink(index map[string]idSet, key, id string) {
	if set, ok := index[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(index, key)
		}
	}
}

func (g *graph) putCommodity(c models.Commodity) *models.Commodity {
	if old, ok := g.commodities[c.ID]; ok {
		delete(g.commodityByKey, old.Key())
	}
	rec := &c
	g.commodities[c.ID] = rec
	g.commodityByKey[c.Key()] = c.ID
	return rec
}

func (g *graph) removeCommodity(id string) {
	if old, ok := g.commodities[id]; ok {
		delete(g.commodityByKey, old.Key())
		delete(g.commodities, id)
	}
}

func (g *graph) putPrice(p models.Price) *models.Price {
	if old, ok := g.prices[p.ID]; ok {
		unlink(g.pricesByCommodity, old.CommodityID, old.ID)
	}
	rec := &p
	g.prices[p.ID] = rec
	link(g.pricesByCommodity, p.CommodityID, p.ID)
	return rec
}

func (g *graph) removePrice(id string) {
	if old, ok := g.prices[id]; ok {
		unlink(g.pricesByCommodity, old.CommodityID, id)
		delete(g.prices, id)
	}
}

func (g *graph) putAccount(a models.Account) *models.Account {
	if old, ok := g.accounts[a.ID]; ok {
		unlink(g.children, old.Parent(), old.ID)
	}
	rec := &a
	g.accounts[a.ID] = rec
	link(g.children, a.Parent(), a.ID)
	return rec
}

func (g *graph) removeAccount(id string) {
	if old, ok := g.accounts[id]; ok {
		unlink(g.children, old.Parent(), id)
		delete(g.accounts, id)
	}
}

func (g *graph) putLot(l models.Lot) *models.Lot {
	rec := &l
	g.lots[l.ID] = rec
	return rec
}

func (g *graph) removeLot(id string) {
	delete(g.lots, id)
}

func (g *graph) putTransaction(t models.Transaction) *models.Transaction {
	rec := &t
	g.transactions[t.ID] = rec
	return rec
}

func (g *graph) removeTransaction(id string) {
	delete(g.transactions, id)
}

func (g *graph) putSplit(s models.Split) *models.Split {
	if old, ok := g.splits[s.ID]; ok {
		g.unindexSplit(old)
	}
	rec := &s
	g.splits[s.ID] = rec
	link(g.splitsByTxn, s.TransactionID, s.ID)
	link(g.splitsByAccount, s.AccountID, s.ID)
	link(g.splitsByLot, s.Lot(), s.ID)
	return rec
}

func (g *graph) removeSplit(id string) {
	if old, ok := g.splits[id]; ok {
		g.unindexSplit(old)
		delete(g.splits, id)
	}
}

func (g *graph) unindexSplit(s *models.Split) {
	unlink(g.splitsByTxn, s.TransactionID, s.ID)
	unlink(g.splitsByAccount, s.AccountID, s.ID)
	unlink(g.splitsByLot, s.Lot(), s.ID)
}

// splitsOf returns the splits of a transaction in ID order.
func (g *graph) splitsOf(txnID string) []*models.Split {
	ids := g.splitsByTxn[txnID].sorted()
	out := make([]*models.Split, len(ids))
	for i, id := range ids {
		out[i] = g.splits[id]
	}
	return out
}

// fullName joins the names of the account and its ancestors, root excluded.
func (g *graph) fullName(id string) string {
	a, ok := g.accounts[id]
	if !ok || a.Type == models.AccountTypeRoot {
		return ""
	}
	parent := g.fullName(a.Parent())
	if parent == "" {
		return a.Name
	}
	return parent + AccountSeparator + a.Name
}

// depth is the number of ancestors of an account.
func (g *graph) depth(id string) int {
	d := 0
	for a, ok := g.accounts[id]; ok && a.ParentID != nil; a, ok = g.accounts[a.Parent()] {
		d++
	}
	return d
}
