package api

import (
	"time"

	"github.com/samber/lo"

	"bidhouse/models"
)

const dateLayout = time.DateOnly

type UserResponse struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	BirthDate    *string `json:"birth_date"`
	Locality     string  `json:"locality"`
	Municipality string  `json:"municipality"`
	IsAdmin      bool    `json:"is_admin"`
}

func newUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Locality:     u.Locality,
		Municipality: u.Municipality,
		IsAdmin:      u.IsAdmin,
	}
	if u.BirthDate != nil {
		resp.BirthDate = lo.ToPtr(u.BirthDate.Format(dateLayout))
	}
	return resp
}

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newCategoryResponse(c models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}

type AuctionResponse struct {
	ID                 uint      `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Price              string    `json:"price"`
	Rating             string    `json:"rating"`
	Stock              int       `json:"stock"`
	Brand              string    `json:"brand"`
	Category           uint      `json:"category"`
	CategoryName       string    `json:"category_name,omitempty"`
	Thumbnail          string    `json:"thumbnail"`
	CreationDate       time.Time `json:"creation_date"`
	ClosingDate        time.Time `json:"closing_date"`
	Auctioneer         uint      `json:"auctioneer"`
	AuctioneerUsername string    `json:"auctioneer_username,omitempty"`
	IsOpen             bool      `json:"is_open"`
}

func newAuctionResponse(a models.Auction, now time.Time) AuctionResponse {
	resp := AuctionResponse{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		Price:        a.Price.StringFixed(2),
		Rating:       a.Rating.StringFixed(2),
		Stock:        a.Stock,
		Brand:        a.Brand,
		Category:     a.CategoryID,
		Thumbnail:    a.Thumbnail,
		CreationDate: a.CreationDate,
		ClosingDate:  a.ClosingDate,
		Auctioneer:   a.AuctioneerID,
		IsOpen:       a.IsOpen(now),
	}
	if a.Category != nil {
		resp.CategoryName = a.Category.Name
	}
	if a.Auctioneer != nil {
		resp.AuctioneerUsername = a.Auctioneer.Username
	}
	return resp
}

func newAuctionResponses(auctions []models.Auction, now time.Time) []AuctionResponse {
	return lo.Map(auctions, func(a models.Auction, _ int) AuctionResponse {
		return newAuctionResponse(a, now)
	})
}

// AuctionPage is one page of the auction listing.
type AuctionPage struct {
	Count   int64             `json:"count"`
	Results []AuctionResponse `json:"results"`
}

type BidResponse struct {
	ID             uint      `json:"id"`
	Auction        uint      `json:"auction"`
	AuctionTitle   string    `json:"auction_title,omitempty"`
	Price          string    `json:"price"`
	CreationDate   time.Time `json:"creation_date"`
	Bidder         uint      `json:"bidder"`
	BidderUsername string    `json:"bidder_username,omitempty"`
}

func newBidResponse(b models.Bid) BidResponse {
	resp := BidResponse{
		ID:           b.ID,
		Auction:      b.AuctionID,
		Price:        b.Price.StringFixed(2),
		CreationDate: b.CreationDate,
		Bidder:       b.BidderID,
	}
	if b.Auction != nil {
		resp.AuctionTitle = b.Auction.Title
	}
	if b.Bidder != nil {
		resp.BidderUsername = b.Bidder.Username
	}
	return resp
}

type RatingResponse struct {
	ID           uint   `json:"id"`
	Auction      uint   `json:"auction"`
	AuctionTitle string `json:"auction_title,omitempty"`
	Value        int    `json:"value"`
}

func newRatingResponse(r models.Rating) RatingResponse {
	resp := RatingResponse{ID: r.ID, Auction: r.AuctionID, Value: r.Value}
	if r.Auction != nil {
		resp.AuctionTitle = r.Auction.Title
	}
	return resp
}

type CommentResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        uint      `json:"user"`
	Username    string    `json:"username,omitempty"`
	Auction     uint      `json:"auction"`
}

func newCommentResponse(c models.Commentary) CommentResponse {
	resp := CommentResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		User:        c.UserID,
		Auction:     c.AuctionID,
	}
	if c.User != nil {
		resp.Username = c.User.Username
	}
	return resp
}

type WalletResponse struct {
	ID         uint    `json:"id"`
	User       uint    `json:"user"`
	CreditCard *string `json:"credit_card"`
	Money      string  `json:"money"`
}

func newWalletResponse(w *models.Wallet) WalletResponse {
	return WalletResponse{
		ID:         w.ID,
		User:       w.UserID,
		CreditCard: w.CreditCard,
		Money:      w.Money.StringFixed(2),
	}
}

type FavoriteResponse struct {
	ID           uint      `json:"id"`
	Auction      uint      `json:"auction"`
	AuctionTitle string    `json:"auction_title,omitempty"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}

func newFavoriteResponse(f models.Favorite) FavoriteResponse {
	resp := FavoriteResponse{
		ID:        f.ID,
		Auction:   f.AuctionID,
		Note:      f.Note,
		CreatedAt: f.CreatedAt,
	}
	if f.Auction != nil {
		resp.AuctionTitle = f.Auction.Title
	}
	return resp
}
