package market

import (
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"bidhouse/models"
	"bidhouse/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]BidEvent
}

func (p *recordingPublisher) Publish(channel string, event BidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]BidEvent)
	}
	p.events[channel] = append(p.events[channel], event)
	return nil
}

func (p *recordingPublisher) Events(channel string) []BidEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]BidEvent(nil), p.events[channel]...)
}

type fixture struct {
	db        *gorm.DB
	svc       *Service
	publisher *recordingPublisher
	seller    *models.User
	buyer     *models.User
	admin     *models.User
	category  *models.Category
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:        db,
		publisher: &recordingPublisher{},
		seller:    testutil.CreateUser(t, db, "seller", false),
		buyer:     testutil.CreateUser(t, db, "buyer", false),
		admin:     testutil.CreateUser(t, db, "admin", true),
		category:  testutil.CreateCategory(t, db, "Books"),
	}
	f.svc = NewService(db, NewLocalLocker(), WithBidPublisher(f.publisher))
	return f
}

func (f *fixture) auction(t *testing.T, price string, closing time.Time) *models.Auction {
	t.Helper()
	return testutil.CreateAuction(t, f.db, testutil.AuctionFixture{
		Price:        price,
		CategoryID:   f.category.ID,
		AuctioneerID: f.seller.ID,
		ClosingDate:  closing,
	})
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

// within fails the test when fn has not returned after d.
func within(t *testing.T, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("still running after %s", d)
	}
}
