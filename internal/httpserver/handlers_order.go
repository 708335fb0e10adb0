package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

const noOrdersMessage = "The user has not ordered anything yet"

func (h *handlers) placeOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.PlaceOrder(c.Request.Context(), mustUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, placeOrderResponse{
		Message:     ordersvc.Confirmation(*o),
		OrderID:     o.ID,
		Amount:      domain.FormatCents(o.TotalCents),
		AmountCents: o.TotalCents,
	})
}

func (h *handlers) orderHistory(c *gin.Context) {
	orders, err := h.deps.OrderSvc.GetOrderHistory(c.Request.Context(), mustUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	resp := orderHistoryResponse{Orders: toOrderSummaries(orders)}
	if len(orders) == 0 {
		resp.Message = noOrdersMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) orderDetails(c *gin.Context) {
	d, err := h.deps.OrderSvc.GetOrderDetails(c.Request.Context(), mustUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderDetailsResponse{
		ID:         d.Order.ID,
		User:       toUserResponse(d.User),
		LineItems:  toLineResponses(d.Items),
		Total:      domain.FormatCents(d.Order.TotalCents),
		TotalCents: d.Order.TotalCents,
		CreatedAt:  d.Order.CreatedAt,
	})
}
