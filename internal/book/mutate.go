package book

import (
	apperrors "ledger/internal/errors"
	"ledger/internal/models"
	"ledger/internal/numeric"
	"ledger/internal/uuid"
	"ledger/internal/validator"
)

// kind identifies the table of a staged record. The order is the order in
// which creates reach the store.
type kind int

const (
	kindCommodity kind = iota
	kindBook
	kindAccount
	kindLot
	kindTransaction
	kindSplit
	kindPrice
)

func (k kind) String() string {
	switch k {
	case kindCommodity:
		return "commodity"
	case kindBook:
		return "book"
	case kindAccount:
		return "account"
	case kindLot:
		return "lot"
	case kindTransaction:
		return "transaction"
	case kindSplit:
		return "split"
	case kindPrice:
		return "price"
	}
	return "unknown"
}

type op int

const (
	opCreate op = iota + 1
	opUpdate
	opDelete
)

type change struct {
	kind kind
	op   op
}

// mark records a staged change, folding it into any earlier change of the
// same record since the last commit.
func (b *Book) mark(id string, k kind, o op) {
	c, ok := b.dirty[id]
	switch {
	case !ok:
		b.dirty[id] = &change{kind: k, op: o}
	case o == opDelete && c.op == opCreate:
		delete(b.dirty, id)
	case o == opDelete:
		c.op = opDelete
	case o == opCreate && c.op == opDelete:
		c.op = opUpdate
	}
}

// Add stages the creation of a record: a *models.Commodity, *models.Price,
// *models.Account, *models.Lot, *models.Transaction or *models.Split. Defaults
// are filled in and an ID is assigned on rec itself; the book keeps its own
// copy, so later changes to rec need an Update.
func (b *Book) Add(rec any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.add(rec)
}

func (b *Book) add(rec any) error {
	switch r := rec.(type) {
	case *models.Commodity:
		return b.addCommodity(r)
	case *models.Price:
		return b.addPrice(r)
	case *models.Account:
		return b.addAccount(r)
	case *models.Lot:
		return b.addLot(r)
	case *models.Transaction:
		return b.addTransaction(r)
	case *models.Split:
		return b.addSplit(r)
	default:
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unsupported record type %T", rec)
	}
}

// Update stages the replacement of a record with the given value. The record
// must exist; it is matched by ID.
func (b *Book) Update(rec any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r := rec.(type) {
	case *models.Commodity:
		return b.updateCommodity(r)
	case *models.Price:
		return b.updatePrice(r)
	case *models.Account:
		return b.updateAccount(r)
	case *models.Lot:
		return b.updateLot(r)
	case *models.Transaction:
		return b.updateTransaction(r)
	case *models.Split:
		return b.updateSplit(r)
	default:
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unsupported record type %T", rec)
	}
}

// Delete stages the removal of a record, matched by ID. Deleting a transaction
// deletes its splits; deleting a lot detaches its splits; deleting a commodity
// deletes its prices.
func (b *Book) Delete(rec any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r := rec.(type) {
	case *models.Commodity:
		return b.deleteCommodity(r.ID)
	case *models.Price:
		return b.deletePrice(r.ID)
	case *models.Account:
		return b.deleteAccount(r.ID)
	case *models.Lot:
		return b.deleteLot(r.ID)
	case *models.Transaction:
		return b.deleteTransaction(r.ID)
	case *models.Split:
		return b.deleteSplit(r.ID)
	default:
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "unsupported record type %T", rec)
	}
}

// invalid converts a validator failure into an ErrInvalidInput.
func invalid(err error) error {
	e := apperrors.Wrap(apperrors.ErrInvalidInput, err)
	e.Message = err.Error()
	return e
}

func (b *Book) checkStruct(rec any) error {
	if err := validator.Struct(rec); err != nil {
		return invalid(err)
	}
	return nil
}

func alreadyExists(k kind, id string) error {
	return apperrors.WithMessagef(apperrors.ErrInvalidInput, "%s %s already exists", k, id)
}

// Commodities

func (b *Book) commodityDefaults(c *models.Commodity) {
	if c.Fraction == 0 {
		c.Fraction = 100
		if c.IsCurrency() {
			if f, ok := validator.CurrencyFraction(c.Mnemonic); ok {
				c.Fraction = f
			}
		}
	}
	if c.QuoteSource == "" {
		if c.IsCurrency() {
			c.QuoteSource = QuoteSourceCurrency
		} else {
			c.QuoteSource = QuoteSourceYahoo
		}
	}
	if c.Fullname == "" {
		c.Fullname = c.Mnemonic
	}
}

func (b *Book) addCommodity(c *models.Commodity) error {
	b.commodityDefaults(c)
	if err := b.checkStruct(c); err != nil {
		return err
	}
	c.EnsureID()
	if _, ok := b.live.commodities[c.ID]; ok {
		return alreadyExists(kindCommodity, c.ID)
	}
	if _, ok := b.live.commodityByKey[c.Key()]; ok {
		return apperrors.WithDetails(apperrors.ErrDuplicateCommodity, apperrors.ErrDuplicateCommodity.Message,
			map[string]any{"commodity": c.Key()})
	}
	b.live.putCommodity(*c)
	b.mark(c.ID, kindCommodity, opCreate)
	return nil
}

func (b *Book) updateCommodity(c *models.Commodity) error {
	if _, ok := b.live.commodities[c.ID]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	if err := b.checkStruct(c); err != nil {
		return err
	}
	if other, ok := b.live.commodityByKey[c.Key()]; ok && other != c.ID {
		return apperrors.WithDetails(apperrors.ErrDuplicateCommodity, apperrors.ErrDuplicateCommodity.Message,
			map[string]any{"commodity": c.Key()})
	}
	b.live.putCommodity(*c)
	b.mark(c.ID, kindCommodity, opUpdate)
	return nil
}

func (b *Book) deleteCommodity(id string) error {
	if _, ok := b.live.commodities[id]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	if b.live.book.DefaultCurrencyID != nil && *b.live.book.DefaultCurrencyID == id {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot delete the default currency")
	}
	for _, a := range b.live.accounts {
		if a.Commodity() == id {
			return apperrors.WithMessagef(apperrors.ErrInvalidInput, "commodity is held by account %s", a.ID)
		}
	}
	for _, t := range b.live.transactions {
		if t.CurrencyID == id {
			return apperrors.WithMessagef(apperrors.ErrInvalidInput, "commodity is the currency of transaction %s", t.ID)
		}
	}
	for _, p := range b.live.prices {
		if p.CommodityID == id || p.CurrencyID == id {
			b.live.removePrice(p.ID)
			b.mark(p.ID, kindPrice, opDelete)
		}
	}
	b.live.removeCommodity(id)
	b.mark(id, kindCommodity, opDelete)
	return nil
}

// Prices

func (b *Book) checkPriceRefs(p *models.Price) error {
	if _, ok := b.live.commodities[p.CommodityID]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	cur, ok := b.live.commodities[p.CurrencyID]
	if !ok {
		return apperrors.ErrCommodityNotFound
	}
	if !cur.IsCurrency() {
		return apperrors.WithMessagef(apperrors.ErrInvalidInput, "price currency %s is not a currency", cur.Key())
	}
	if p.CommodityID == p.CurrencyID {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "a commodity cannot be priced in itself")
	}
	if !p.Value.IsSet() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "price value is required")
	}
	return nil
}

func (b *Book) addPrice(p *models.Price) error {
	if p.Source == "" {
		p.Source = models.DefaultPriceSource
	}
	if p.Type == "" {
		p.Type = models.PriceTypeUnknown
	}
	if p.Date.IsZero() {
		p.Date = b.today()
	}
	if err := b.checkStruct(p); err != nil {
		return err
	}
	if err := b.checkPriceRefs(p); err != nil {
		return err
	}
	if err := scalePrice(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New()
	}
	if _, ok := b.live.prices[p.ID]; ok {
		return alreadyExists(kindPrice, p.ID)
	}
	b.live.putPrice(*p)
	b.mark(p.ID, kindPrice, opCreate)
	return nil
}

func (b *Book) updatePrice(p *models.Price) error {
	if _, ok := b.live.prices[p.ID]; !ok {
		return apperrors.WithMessage(apperrors.ErrNotFound, "price not found")
	}
	if err := b.checkStruct(p); err != nil {
		return err
	}
	if err := b.checkPriceRefs(p); err != nil {
		return err
	}
	if err := scalePrice(p); err != nil {
		return err
	}
	b.live.putPrice(*p)
	b.mark(p.ID, kindPrice, opUpdate)
	return nil
}

func (b *Book) deletePrice(id string) error {
	if _, ok := b.live.prices[id]; !ok {
		return apperrors.WithMessage(apperrors.ErrNotFound, "price not found")
	}
	b.live.removePrice(id)
	b.mark(id, kindPrice, opDelete)
	return nil
}

// Accounts

func (b *Book) checkAccountRefs(a *models.Account) error {
	if a.Type == models.AccountTypeRoot {
		if a.ID == "" || a.ID != b.rootID() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "a book has a single root account")
		}
		return nil
	}
	if a.ID != "" && a.ID == b.rootID() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "the root account type cannot change")
	}
	if a.CommodityID == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account commodity is required")
	}
	if _, ok := b.live.commodities[*a.CommodityID]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	if a.ParentID == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account parent is required")
	}
	if _, ok := b.live.accounts[*a.ParentID]; !ok {
		return apperrors.WithMessage(apperrors.ErrAccountNotFound, "parent account not found")
	}
	for id := *a.ParentID; id != ""; {
		if id == a.ID {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "an account cannot be its own ancestor")
		}
		parent, ok := b.live.accounts[id]
		if !ok {
			break
		}
		id = parent.Parent()
	}
	return nil
}

func (b *Book) addAccount(a *models.Account) error {
	if a.ParentID == nil && a.Type != models.AccountTypeRoot {
		root := b.rootID()
		a.ParentID = &root
	}
	if err := b.checkStruct(a); err != nil {
		return err
	}
	if err := b.checkAccountRefs(a); err != nil {
		return err
	}
	a.EnsureID()
	if _, ok := b.live.accounts[a.ID]; ok {
		return alreadyExists(kindAccount, a.ID)
	}
	b.live.putAccount(*a)
	b.mark(a.ID, kindAccount, opCreate)
	return nil
}

func (b *Book) updateAccount(a *models.Account) error {
	if _, ok := b.live.accounts[a.ID]; !ok {
		return apperrors.ErrAccountNotFound
	}
	if err := b.checkStruct(a); err != nil {
		return err
	}
	if err := b.checkAccountRefs(a); err != nil {
		return err
	}
	b.live.putAccount(*a)
	b.mark(a.ID, kindAccount, opUpdate)
	return nil
}

func (b *Book) deleteAccount(id string) error {
	if _, ok := b.live.accounts[id]; !ok {
		return apperrors.ErrAccountNotFound
	}
	if id == b.rootID() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot delete the root account")
	}
	if len(b.live.children[id]) > 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account has child accounts")
	}
	if len(b.live.splitsByAccount[id]) > 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account has splits")
	}
	for _, l := range b.live.lots {
		if l.AccountID == id {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "account has lots")
		}
	}
	b.live.removeAccount(id)
	b.mark(id, kindAccount, opDelete)
	return nil
}

// Lots

func (b *Book) checkLotRefs(l *models.Lot) error {
	a, ok := b.live.accounts[l.AccountID]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	if a.CommodityID == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "lots cannot be opened on the root account")
	}
	return nil
}

func (b *Book) addLot(l *models.Lot) error {
	if err := b.checkStruct(l); err != nil {
		return err
	}
	if err := b.checkLotRefs(l); err != nil {
		return err
	}
	l.EnsureID()
	if _, ok := b.live.lots[l.ID]; ok {
		return alreadyExists(kindLot, l.ID)
	}
	b.live.putLot(*l)
	b.mark(l.ID, kindLot, opCreate)
	return nil
}

func (b *Book) updateLot(l *models.Lot) error {
	if _, ok := b.live.lots[l.ID]; !ok {
		return apperrors.ErrLotNotFound
	}
	if err := b.checkStruct(l); err != nil {
		return err
	}
	if err := b.checkLotRefs(l); err != nil {
		return err
	}
	b.live.putLot(*l)
	b.mark(l.ID, kindLot, opUpdate)
	return nil
}

func (b *Book) deleteLot(id string) error {
	if _, ok := b.live.lots[id]; !ok {
		return apperrors.ErrLotNotFound
	}
	for _, sid := range b.live.splitsByLot[id].sorted() {
		s := *b.live.splits[sid]
		s.LotID = nil
		b.live.putSplit(s)
		b.mark(sid, kindSplit, opUpdate)
	}
	b.live.removeLot(id)
	b.mark(id, kindLot, opDelete)
	return nil
}

// Transactions

func (b *Book) addTransaction(t *models.Transaction) error {
	if t.EnterDate.IsZero() {
		t.EnterDate = b.now()
	}
	if t.PostDate.IsZero() {
		t.PostDate = b.today()
	}
	if err := b.checkStruct(t); err != nil {
		return err
	}
	if _, ok := b.live.commodities[t.CurrencyID]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	t.EnsureID()
	if _, ok := b.live.transactions[t.ID]; ok {
		return alreadyExists(kindTransaction, t.ID)
	}
	b.live.putTransaction(*t)
	b.mark(t.ID, kindTransaction, opCreate)
	return nil
}

func (b *Book) updateTransaction(t *models.Transaction) error {
	if _, ok := b.live.transactions[t.ID]; !ok {
		return apperrors.ErrTransactionNotFound
	}
	if err := b.checkStruct(t); err != nil {
		return err
	}
	if _, ok := b.live.commodities[t.CurrencyID]; !ok {
		return apperrors.ErrCommodityNotFound
	}
	b.live.putTransaction(*t)
	b.mark(t.ID, kindTransaction, opUpdate)
	return nil
}

func (b *Book) deleteTransaction(id string) error {
	if _, ok := b.live.transactions[id]; !ok {
		return apperrors.ErrTransactionNotFound
	}
	for _, sid := range b.live.splitsByTxn[id].sorted() {
		b.live.removeSplit(sid)
		b.mark(sid, kindSplit, opDelete)
	}
	b.live.removeTransaction(id)
	b.mark(id, kindTransaction, opDelete)
	return nil
}

// Splits

func (b *Book) checkSplitRefs(s *models.Split) error {
	if _, ok := b.live.transactions[s.TransactionID]; !ok {
		return apperrors.ErrTransactionNotFound
	}
	a, ok := b.live.accounts[s.AccountID]
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	if a.Type == models.AccountTypeRoot {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "splits cannot be posted to the root account")
	}
	return nil
}

func scalePrice(p *models.Price) error {
	v, err := p.Value.Rescale(models.PriceFraction)
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "price value exceeds the representable range")
	}
	p.Value = v
	return nil
}

// scaleSplit rounds the value to the transaction currency's fraction and the
// quantity to the account commodity's fraction.
func (b *Book) scaleSplit(s *models.Split) error {
	if cur, ok := b.live.commodities[b.live.transactions[s.TransactionID].CurrencyID]; ok && s.Value.IsSet() {
		v, err := s.Value.Rescale(cur.Fraction)
		if err != nil {
			return splitOutOfRange(s, "value", err)
		}
		s.Value = v
	}
	if c, ok := b.live.commodities[b.live.accounts[s.AccountID].Commodity()]; ok && s.Quantity.IsSet() {
		q, err := s.Quantity.Rescale(c.Fraction)
		if err != nil {
			return splitOutOfRange(s, "quantity", err)
		}
		s.Quantity = q
	}
	return nil
}

func splitOutOfRange(s *models.Split, field string, err error) error {
	return apperrors.WithDetails(apperrors.ErrInvalidInput,
		"split "+field+" exceeds the representable range",
		map[string]any{"split_id": s.ID, "field": field, "error": err.Error()})
}

// checkLotMembership rejects putting s into a lot of another account.
func (b *Book) checkLotMembership(s *models.Split) error {
	if s.LotID == nil {
		return nil
	}
	lot, ok := b.live.lots[*s.LotID]
	if !ok {
		return apperrors.ErrLotNotFound
	}
	if lot.AccountID != s.AccountID {
		return lotAccountMismatch(s, lot)
	}
	return nil
}

func (b *Book) addSplit(s *models.Split) error {
	if s.ReconcileState == "" {
		s.ReconcileState = models.ReconcileNew
	}
	if err := b.checkStruct(s); err != nil {
		return err
	}
	if err := b.checkSplitRefs(s); err != nil {
		return err
	}
	if !s.Value.IsSet() {
		cur := b.live.commodities[b.live.transactions[s.TransactionID].CurrencyID]
		s.Value = numeric.Zero(cur.Fraction)
	}
	if err := b.scaleSplit(s); err != nil {
		return err
	}
	if err := b.checkLotMembership(s); err != nil {
		return err
	}
	s.EnsureID()
	if _, ok := b.live.splits[s.ID]; ok {
		return alreadyExists(kindSplit, s.ID)
	}
	b.live.putSplit(*s)
	b.mark(s.ID, kindSplit, opCreate)
	return nil
}

func (b *Book) updateSplit(s *models.Split) error {
	old, ok := b.live.splits[s.ID]
	if !ok {
		return apperrors.ErrSplitNotFound
	}
	if err := b.checkStruct(s); err != nil {
		return err
	}
	if err := b.checkSplitRefs(s); err != nil {
		return err
	}
	if err := b.scaleSplit(s); err != nil {
		return err
	}
	if s.Lot() != old.Lot() || s.AccountID != old.AccountID {
		if err := b.checkLotMembership(s); err != nil {
			return err
		}
	}
	b.live.putSplit(*s)
	b.mark(s.ID, kindSplit, opUpdate)
	return nil
}

func (b *Book) deleteSplit(id string) error {
	if _, ok := b.live.splits[id]; !ok {
		return apperrors.ErrSplitNotFound
	}
	b.live.removeSplit(id)
	b.mark(id, kindSplit, opDelete)
	return nil
}
