package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	u, err := h.deps.UserSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registerResponse{
		Message: fmt.Sprintf("New user %s created!", u.Email),
		User:    toUserResponse(*u),
	})
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.UserSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{
		ID:        res.User.ID,
		Email:     res.User.Email,
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt,
		CreatedAt: res.User.CreatedAt,
	})
}

func (h *handlers) me(c *gin.Context) {
	u, err := h.deps.UserSvc.Me(c.Request.Context(), mustUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*u))
}
