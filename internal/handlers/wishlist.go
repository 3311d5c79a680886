package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quickcart-shop/quickcart-api/internal/middleware"
)

// GetWishlist handles GET /api/wishlist
func (h *Handlers) GetWishlist(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	wishlist, err := h.wishlistService.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlist)
}

// AddWishlistItem handles POST /api/wishlist/:productId
func (h *Handlers) AddWishlistItem(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	wishlist, err := h.wishlistService.Add(c.Request.Context(), userID, productID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlist)
}

// RemoveWishlistItem handles DELETE /api/wishlist/:productId
func (h *Handlers) RemoveWishlistItem(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	wishlist, err := h.wishlistService.Remove(c.Request.Context(), userID, productID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wishlist)
}
