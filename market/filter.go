package market

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinSearchLength = 3
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// auctionOrderings maps the accepted ordering keys to columns.
var auctionOrderings = map[string]string{
	"id":            "id",
	"price":         "price",
	"rating":        "rating",
	"closing_date":  "closing_date",
	"creation_date": "creation_date",
}

// AuctionFilter holds the optional listing constraints; nil fields are not applied.
// All supplied constraints are combined with AND.
type AuctionFilter struct {
	Search     *string
	CategoryID *uint
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	MinDate    *time.Time
	MinRating  *decimal.Decimal
	IsOpen     *bool
	Ordering   string
}

// Page is an offset/limit window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// ParseAuctionFilter validates the listing query parameters. Empty values count as absent.
// The first invalid parameter is reported, keyed by its name.
func ParseAuctionFilter(params url.Values) (AuctionFilter, error) {
	var f AuctionFilter

	if search := params.Get("search"); search != "" {
		if utf8.RuneCountInString(search) < MinSearchLength {
			return f, NewValidationError("search", "the search query must have at least 3 characters")
		}
		f.Search = &search
	}

	if raw := params.Get("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return f, NewValidationError("category", "category not found")
		}
		categoryID := uint(id)
		f.CategoryID = &categoryID
	}

	if raw := params.Get("minPrice"); raw != "" {
		v, err := ParseAmount("minPrice", raw, maxPriceAmount)
		if err != nil {
			return f, err
		}
		if v.IsNegative() {
			return f, NewValidationError("minPrice", "the minimum price must be 0 or greater")
		}
		f.MinPrice = &v
	}

	if raw := params.Get("maxPrice"); raw != "" {
		v, err := ParseAmount("maxPrice", raw, maxPriceAmount)
		if err != nil {
			return f, err
		}
		if v.IsNegative() {
			return f, NewValidationError("maxPrice", "the maximum price must be 0 or greater")
		}
		f.MaxPrice = &v
	}

	if f.MinPrice != nil && f.MaxPrice != nil && !f.MaxPrice.GreaterThan(*f.MinPrice) {
		return f, NewValidationError("maxPrice", "the maximum price must be greater than the minimum price")
	}

	if raw := params.Get("minDate"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return f, NewValidationError("minDate", "invalid date format, use YYYY-MM-DD")
		}
		f.MinDate = &d
	}

	if raw := params.Get("minRating"); raw != "" {
		v, err := ParseAmount("minRating", raw, maxRatingAmount)
		if err != nil {
			return f, err
		}
		if v.IsNegative() {
			return f, NewValidationError("minRating", "the minimum rating must be 0 or greater")
		}
		f.MinRating = &v
	}

	if raw := params.Get("isOpen"); raw != "" {
		open, err := strconv.ParseBool(raw)
		if err != nil {
			return f, NewValidationError("isOpen", "isOpen must be true or false")
		}
		f.IsOpen = &open
	}

	if raw := params.Get("ordering"); raw != "" {
		if _, ok := auctionOrderings[strings.TrimPrefix(raw, "-")]; !ok {
			return f, NewValidationError("ordering", "unknown ordering key")
		}
		f.Ordering = raw
	}

	return f, nil
}

// ParsePage reads limit and offset, applying the default and maximum page size.
func ParsePage(params url.Values) (Page, error) {
	page := Page{Limit: DefaultPageSize}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxPageSize {
			return page, NewValidationError("limit", "limit must be between 1 and 100")
		}
		page.Limit = limit
	}
	if raw := params.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, NewValidationError("offset", "offset must be 0 or greater")
		}
		page.Offset = offset
	}
	return page, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Apply adds the filter conditions to q. now decides the isOpen constraint.
func (f AuctionFilter) Apply(q *gorm.DB, now time.Time) *gorm.DB {
	if f.Search != nil {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(*f.Search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinDate != nil {
		q = q.Where("closing_date >= ?", *f.MinDate)
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	if f.IsOpen != nil {
		if *f.IsOpen {
			q = q.Where("closing_date > ?", now)
		} else {
			q = q.Where("closing_date <= ?", now)
		}
	}
	return q
}

// order applies the requested ordering; ties are always broken by ascending id.
func (f AuctionFilter) order(q *gorm.DB) *gorm.DB {
	key, desc := "id", false
	if f.Ordering != "" {
		desc = strings.HasPrefix(f.Ordering, "-")
		key = strings.TrimPrefix(f.Ordering, "-")
	}
	columns := []clause.OrderByColumn{{Column: clause.Column{Name: auctionOrderings[key]}, Desc: desc}}
	if key != "id" {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	return q.Order(clause.OrderBy{Columns: columns})
}
