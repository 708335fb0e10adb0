package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
)

func (h *handlers) toggleItem(c *gin.Context) {
	var req toggleRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.CartSvc.ToggleItem(c.Request.Context(), mustUserID(c), cartsvc.ToggleInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{
		Message:    res.Message(),
		Action:     string(res.Action),
		Total:      domain.FormatCents(res.TotalCents),
		TotalCents: res.TotalCents,
	})
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.CartSvc.GetCart(c.Request.Context(), mustUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{
		Items:      toLineResponses(view.Items),
		Total:      domain.FormatCents(view.Cart.TotalCents),
		TotalCents: view.Cart.TotalCents,
	})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.CartSvc.ClearCart(c.Request.Context(), mustUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse{
		Items: []lineResponse{},
		Total: domain.FormatCents(0),
	})
}
