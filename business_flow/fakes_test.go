package businessflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/amirphl/listing-price-history/models"
	"github.com/amirphl/listing-price-history/repository"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txMarker struct{}

// memStore backs every fake repository. Transactions snapshot it and restore the
// snapshot when the callback fails.
type memStore struct {
	mu        sync.Mutex
	listings  map[uint]*models.Listing
	intervals map[uint]*models.PriceInterval
	audits    []*models.PriceHistoryAuditLog
	nextID    uint

	failProject bool
	failUpdate  bool
	locks       []string
}

func newMemStore() *memStore {
	return &memStore{
		listings:  make(map[uint]*models.Listing),
		intervals: make(map[uint]*models.PriceInterval),
		nextID:    100,
	}
}

func (m *memStore) addListing(id uint) *models.Listing {
	l := &models.Listing{ID: id, Title: "listing"}
	m.listings[id] = l
	return l
}

func (m *memStore) addInterval(p *models.PriceInterval) *models.PriceInterval {
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	}
	m.intervals[p.ID] = clonePriceInterval(p)
	return p
}

func (m *memStore) live(listingID uint, t models.TransactionType) []*models.PriceInterval {
	var out []*models.PriceInterval
	for _, p := range m.intervals {
		if p.DeletedAt.Valid || p.ListingID != listingID || p.TransactionType != t {
			continue
		}
		out = append(out, clonePriceInterval(p))
	}
	sort.Slice(out, func(i, j int) bool { return startsLater(out[j], out[i]) })
	return out
}

func (m *memStore) openCount(listingID uint, t models.TransactionType) int {
	n := 0
	for _, p := range m.live(listingID, t) {
		if p.IsOpen() {
			n++
		}
	}
	return n
}

type memSnapshot struct {
	listings  map[uint]models.Listing
	intervals map[uint]*models.PriceInterval
	audits    int
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		listings:  make(map[uint]models.Listing, len(m.listings)),
		intervals: make(map[uint]*models.PriceInterval, len(m.intervals)),
		audits:    len(m.audits),
	}
	for id, l := range m.listings {
		s.listings[id] = *l
	}
	for id, p := range m.intervals {
		s.intervals[id] = clonePriceInterval(p)
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.listings = make(map[uint]*models.Listing, len(s.listings))
	for id, l := range s.listings {
		l := l
		m.listings[id] = &l
	}
	m.intervals = s.intervals
	m.audits = m.audits[:s.audits]
}

type fakeTxManager struct {
	store *memStore
}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	snap := f.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeListingRepo struct {
	store *memStore
}

var _ repository.ListingRepository = (*fakeListingRepo)(nil)

func (r *fakeListingRepo) ByID(_ context.Context, id uint) (*models.Listing, error) {
	l, ok := r.store.listings[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *fakeListingRepo) ByUUID(context.Context, string) (*models.Listing, error) {
	return nil, nil
}

func (r *fakeListingRepo) ByFilter(context.Context, models.ListingFilter, string, int, int) ([]*models.Listing, error) {
	return nil, nil
}

func (r *fakeListingRepo) Save(_ context.Context, l *models.Listing) error {
	r.store.listings[l.ID] = l
	return nil
}

func (r *fakeListingRepo) SaveBatch(ctx context.Context, ls []*models.Listing) error {
	for _, l := range ls {
		_ = r.Save(ctx, l)
	}
	return nil
}

func (r *fakeListingRepo) Count(context.Context, models.ListingFilter) (int64, error) {
	return int64(len(r.store.listings)), nil
}

func (r *fakeListingRepo) UpdateCurrentPrice(_ context.Context, listingID uint, t models.TransactionType, amount decimal.NullDecimal, actorID uint) error {
	if r.store.failProject {
		return errors.New("listing update failed")
	}
	l, ok := r.store.listings[listingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	switch t {
	case models.TransactionTypeSale:
		l.SalePrice = amount
	case models.TransactionTypeLease:
		l.LeasePrice = amount
	case models.TransactionTypeSeasonal:
		l.SeasonalPrice = amount
	}
	l.UpdatedBy = utils.ToPtr(actorID)
	return nil
}

type fakeIntervalRepo struct {
	store *memStore
}

var _ repository.PriceIntervalRepository = (*fakeIntervalRepo)(nil)

func (r *fakeIntervalRepo) ByID(_ context.Context, id uint) (*models.PriceInterval, error) {
	p, ok := r.store.intervals[id]
	if !ok || p.DeletedAt.Valid {
		return nil, nil
	}
	return clonePriceInterval(p), nil
}

func (r *fakeIntervalRepo) matches(p *models.PriceInterval, f models.PriceIntervalFilter) bool {
	switch {
	case p.DeletedAt.Valid:
		return false
	case f.ListingID != nil && p.ListingID != *f.ListingID:
		return false
	case f.TransactionType != nil && p.TransactionType != *f.TransactionType:
		return false
	case f.StartAfter != nil && p.StartDate.Before(*f.StartAfter):
		return false
	case f.EndBefore != nil && (p.EndDate == nil || p.EndDate.After(*f.EndBefore)):
		return false
	case f.CurrentOnly && !p.IsOpen():
		return false
	}
	return true
}

func (r *fakeIntervalRepo) ByFilter(_ context.Context, f models.PriceIntervalFilter, orderBy string, limit, offset int) ([]*models.PriceInterval, error) {
	var out []*models.PriceInterval
	for _, p := range r.store.intervals {
		if r.matches(p, f) {
			out = append(out, clonePriceInterval(p))
		}
	}

	desc := strings.HasSuffix(orderBy, "DESC")
	sort.SliceStable(out, func(i, j int) bool {
		var cmp int
		if strings.HasPrefix(orderBy, "amount") {
			cmp = out[i].Amount.Cmp(out[j].Amount)
		} else {
			cmp = out[i].StartDate.Compare(out[j].StartDate)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeIntervalRepo) Save(_ context.Context, p *models.PriceInterval) error {
	r.store.nextID++
	p.ID = r.store.nextID
	p.CreatedAt = utils.UTCNow()
	p.UpdatedAt = p.CreatedAt
	r.store.intervals[p.ID] = clonePriceInterval(p)
	return nil
}

func (r *fakeIntervalRepo) SaveBatch(ctx context.Context, ps []*models.PriceInterval) error {
	for _, p := range ps {
		_ = r.Save(ctx, p)
	}
	return nil
}

func (r *fakeIntervalRepo) Count(_ context.Context, f models.PriceIntervalFilter) (int64, error) {
	var n int64
	for _, p := range r.store.intervals {
		if r.matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *fakeIntervalRepo) Update(_ context.Context, p *models.PriceInterval) error {
	if r.store.failUpdate {
		return errors.New("update failed")
	}
	if _, ok := r.store.intervals[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.intervals[p.ID] = clonePriceInterval(p)
	return nil
}

func (r *fakeIntervalRepo) SoftDelete(_ context.Context, id uint, actorID uint) error {
	p, ok := r.store.intervals[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	c := clonePriceInterval(p)
	c.DeletedAt = gorm.DeletedAt{Time: utils.UTCNow(), Valid: true}
	c.DeletedBy = utils.ToPtr(actorID)
	r.store.intervals[id] = c
	return nil
}

func (r *fakeIntervalRepo) ListByKey(_ context.Context, listingID uint, t models.TransactionType) ([]*models.PriceInterval, error) {
	return r.store.live(listingID, t), nil
}

func (r *fakeIntervalRepo) ListByListing(_ context.Context, listingID uint) ([]*models.PriceInterval, error) {
	var out []*models.PriceInterval
	for _, t := range models.TransactionTypes {
		out = append(out, r.store.live(listingID, t)...)
	}
	return out, nil
}

func (r *fakeIntervalRepo) CurrentByKey(_ context.Context, listingID uint, t models.TransactionType) (*models.PriceInterval, error) {
	return findOpen(r.store.live(listingID, t)), nil
}

func (r *fakeIntervalRepo) LatestStartedByKey(_ context.Context, listingID uint, t models.TransactionType) (*models.PriceInterval, error) {
	rows := r.store.live(listingID, t)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

func (r *fakeIntervalRepo) LockKey(ctx context.Context, listingID uint, t models.TransactionType) error {
	if ctx.Value(txMarker{}) == nil {
		return repository.ErrTransactionRequired
	}
	r.store.locks = append(r.store.locks, t.String())
	return nil
}

type fakeAuditRepo struct {
	store *memStore
}

var _ repository.PriceHistoryAuditLogRepository = (*fakeAuditRepo)(nil)

func (r *fakeAuditRepo) ByID(context.Context, uint) (*models.PriceHistoryAuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(context.Context, models.PriceHistoryAuditLogFilter, string, int, int) ([]*models.PriceHistoryAuditLog, error) {
	return r.store.audits, nil
}

func (r *fakeAuditRepo) Save(_ context.Context, a *models.PriceHistoryAuditLog) error {
	r.store.audits = append(r.store.audits, a)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, as []*models.PriceHistoryAuditLog) error {
	r.store.audits = append(r.store.audits, as...)
	return nil
}

func (r *fakeAuditRepo) Count(context.Context, models.PriceHistoryAuditLogFilter) (int64, error) {
	return int64(len(r.store.audits)), nil
}

func (r *fakeAuditRepo) ListByListing(_ context.Context, listingID uint, _, _ int) ([]*models.PriceHistoryAuditLog, error) {
	var out []*models.PriceHistoryAuditLog
	for _, a := range r.store.audits {
		if a.ListingID == listingID {
			out = append(out, a)
		}
	}
	return out, nil
}
