package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bidhouse/market"
)

// streamBidEvents pushes accepted bids of an open auction as server-sent events
// until the client leaves or the auction closes.
func (impl *ServerImpl) streamBidEvents(c *gin.Context) {
	const op = "StreamBidEvents"
	auctionID, err := pathID(c, "id", market.ErrAuctionNotFound)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	auction, err := impl.market.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	if !auction.IsOpen(impl.now()) {
		c.AbortWithStatusJSON(http.StatusGone, ErrorResponse{Message: "the auction is closed"})
		return
	}

	channel := market.AuctionChannel(auctionID)
	ch, err := impl.sseManager.Subscribe(channel)
	if err != nil {
		impl.fail(c, op, fmt.Errorf("fail to subscribe to auction events, err=%w", err))
		return
	}
	defer impl.sseManager.Unsubscribe(channel, ch)

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	closing := time.NewTimer(auction.ClosingDate.Sub(impl.now()))
	defer closing.Stop()
	heartbeat := time.NewTicker(impl.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("bid", event)
			w.Flush()
		case <-closing.C:
			c.SSEvent("closed", gin.H{"auctionId": auctionID})
			w.Flush()
			return
		// keeps proxies from dropping an idle stream
		case <-heartbeat.C:
			_, _ = w.WriteString(": heartbeat\n\n")
			w.Flush()
		}
	}
}
