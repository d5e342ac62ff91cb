package redis

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

// feedMessage mirrors the shape of a bid announcement on the stream.
type feedMessage struct {
	AuctionID uint      `msgpack:"auction_id"`
	Price     string    `msgpack:"price"`
	Bidder    string    `msgpack:"bidder"`
	Time      time.Time `msgpack:"time"`
}
