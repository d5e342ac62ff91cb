package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"bidhouse/market"
)

type createWalletRequest struct {
	CreditCard *string `json:"credit_card"`
}

// updateWalletRequest takes money as a JSON number or a numeric string.
type updateWalletRequest struct {
	CreditCard *string         `json:"credit_card"`
	Money      json.RawMessage `json:"money"`
}

// moneyDelta returns the textual amount, or nil when money was absent or null.
func (r *updateWalletRequest) moneyDelta() (*string, error) {
	raw := bytes.TrimSpace(r.Money)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var delta string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &delta); err != nil {
			return nil, market.NewValidationError("money", "the amount must be a valid number")
		}
	} else {
		delta = string(raw)
	}
	return &delta, nil
}

func (impl *ServerImpl) getWallet(c *gin.Context) {
	const op = "GetWallet"
	wallet, err := impl.market.GetWallet(c.Request.Context(), actorOf(c).UserID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newWalletResponse(wallet))
}

func (impl *ServerImpl) createWallet(c *gin.Context) {
	const op = "CreateWallet"
	var req createWalletRequest
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, &req); err != nil {
			impl.fail(c, op, err)
			return
		}
	}
	wallet, err := impl.market.CreateWallet(c.Request.Context(), actorOf(c), req.CreditCard)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, newWalletResponse(wallet))
}

func (impl *ServerImpl) updateWallet(c *gin.Context) {
	const op = "UpdateWallet"
	var req updateWalletRequest
	if err := bindJSON(c, &req); err != nil {
		impl.fail(c, op, err)
		return
	}
	delta, err := req.moneyDelta()
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	wallet, err := impl.market.UpdateWallet(c.Request.Context(), actorOf(c), market.WalletPatch{
		CreditCard: req.CreditCard,
		Money:      delta,
	})
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newWalletResponse(wallet))
}
