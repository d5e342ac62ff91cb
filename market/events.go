package market

import (
	"strconv"
	"time"
)

// BidEvent announces an accepted bid to live subscribers of an auction.
type BidEvent struct {
	AuctionID uint      `json:"auctionId" msgpack:"auction_id"`
	BidID     uint      `json:"bidId" msgpack:"bid_id"`
	Price     string    `json:"price" msgpack:"price"`
	Bidder    string    `json:"bidder" msgpack:"bidder"`
	Time      time.Time `json:"time" msgpack:"time"`
}

// BidPublisher delivers bid events to the channel of an auction.
type BidPublisher interface {
	Publish(channel string, event BidEvent) error
}

// AuctionChannel names the event channel of an auction.
func AuctionChannel(auctionID uint) string {
	return strconv.FormatUint(uint64(auctionID), 10)
}
