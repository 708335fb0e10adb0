package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type toggleRequest struct {
	ProductID string           `json:"productId" binding:"required,uuid"`
	Quantity  int              `json:"quantity" binding:"required,min=1,max=999"`
	Price     *decimal.Decimal `json:"price"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type categoryResponse struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

type productResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	PriceCents   int64  `json:"priceCents"`
	Description  string `json:"description,omitempty"`
	Availability bool   `json:"availability"`
	CategoryID   int    `json:"categoryId"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:           p.ID,
		Title:        p.Title,
		Price:        domain.FormatCents(p.PriceCents),
		PriceCents:   p.PriceCents,
		Description:  p.Description,
		Availability: p.Available,
		CategoryID:   p.CategoryID,
	}
}

type lineResponse struct {
	ProductID  string           `json:"productId"`
	Product    *productResponse `json:"product"`
	Quantity   int              `json:"quantity"`
	UnitPrice  string           `json:"unitPrice"`
	Total      string           `json:"total"`
	TotalCents int64            `json:"totalCents"`
}

func toLineResponses(lines []domain.ResolvedLine) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		lr := lineResponse{
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  domain.FormatCents(l.UnitPriceCents),
			Total:      domain.FormatCents(l.TotalCents),
			TotalCents: l.TotalCents,
		}
		if l.Product != nil {
			p := toProductResponse(*l.Product)
			lr.Product = &p
		}
		out = append(out, lr)
	}
	return out
}

type toggleResponse struct {
	Message    string `json:"message"`
	Action     string `json:"action"`
	Total      string `json:"total"`
	TotalCents int64  `json:"totalCents"`
}

type cartResponse struct {
	Items      []lineResponse `json:"items"`
	Total      string         `json:"total"`
	TotalCents int64          `json:"totalCents"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

type registerResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

type loginResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type placeOrderResponse struct {
	Message     string `json:"message"`
	OrderID     string `json:"orderId"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
}

type orderSummary struct {
	ID         string    `json:"id"`
	ItemCount  int       `json:"itemCount"`
	Total      string    `json:"total"`
	TotalCents int64     `json:"totalCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

type orderHistoryResponse struct {
	Message string         `json:"message,omitempty"`
	Orders  []orderSummary `json:"orders"`
}

func toOrderSummaries(orders []domain.Order) []orderSummary {
	out := make([]orderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderSummary{
			ID:         o.ID,
			ItemCount:  len(o.Lines),
			Total:      domain.FormatCents(o.TotalCents),
			TotalCents: o.TotalCents,
			CreatedAt:  o.CreatedAt,
		})
	}
	return out
}

type orderDetailsResponse struct {
	ID         string         `json:"id"`
	User       userResponse   `json:"user"`
	LineItems  []lineResponse `json:"lineItems"`
	Total      string         `json:"total"`
	TotalCents int64          `json:"totalCents"`
	CreatedAt  time.Time      `json:"createdAt"`
}
