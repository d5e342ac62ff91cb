package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bidhouse/models"
)

// Actor is the authenticated caller of a workflow.
type Actor struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// CanModify reports whether the actor owns the resource or is an administrator.
func (a Actor) CanModify(ownerID uint) bool {
	return a.IsAdmin || a.UserID == ownerID
}

// Service runs the marketplace workflows on top of a gorm database.
type Service struct {
	db      *gorm.DB
	locker  Locker
	events  BidPublisher
	logger  *slog.Logger
	nowFunc func() time.Time
}

type Option func(*Service)

// WithLogger sets the logger used for non-fatal failures such as event publishing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces the wall clock used for open/closed decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithBidPublisher sets the sink that receives an event for every accepted bid.
func WithBidPublisher(p BidPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

func NewService(db *gorm.DB, locker Locker, opts ...Option) *Service {
	s := &Service{
		db:      db,
		locker:  locker,
		logger:  slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("caller", "market.Service"))
	return s
}

func (s *Service) now() time.Time {
	return s.nowFunc().UTC()
}

// withLock runs fn inside one transaction while holding the lock for key.
func (s *Service) withLock(ctx context.Context, key string, fn func(tx *gorm.DB) error) error {
	lockCtx, unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return fmt.Errorf("fail to acquire lock %s, err=%w", key, err)
	}
	defer unlock()
	return s.db.WithContext(lockCtx).Transaction(fn)
}

// forUpdate adds a row lock on dialects that support it.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func findAuction(tx *gorm.DB, id uint, lock bool) (*models.Auction, error) {
	q := tx
	if lock {
		q = forUpdate(tx)
	}
	var auction models.Auction
	if err := q.First(&auction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, fmt.Errorf("fail to find auction %d, err=%w", id, err)
	}
	return &auction, nil
}
