package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/transport/http/middleware"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

// ShopHandler exposes the catalog endpoints.
type ShopHandler struct {
	catalog *usecase.CatalogService
}

// NewShopHandler builds a shop handler.
func NewShopHandler(catalog *usecase.CatalogService) *ShopHandler {
	return &ShopHandler{catalog: catalog}
}

// Items returns the catalog. Sending a valid admin session token widens the
// view to hidden listings; everyone else gets the visible subset.
func (h *ShopHandler) Items(c *gin.Context) {
	token := middleware.BodySessionToken(c)

	listings, err := h.catalog.ListItems(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Server error"))
		return
	}

	c.JSON(http.StatusOK, listings)
}

// listingPayload is the catalog entry shape the clients send, nested under
// newListing on add and updatedListing on update.
type listingPayload struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	URL         string `json:"url"`
	Quantity    int64  `json:"quantity"`
	Description string `json:"description"`
	Visible     *bool  `json:"visible"`
}

func (p listingPayload) listing() domain.Listing {
	visible := true
	if p.Visible != nil {
		visible = *p.Visible
	}
	return domain.Listing{
		Name:        strings.TrimSpace(p.Name),
		Price:       p.Price,
		URL:         p.URL,
		Quantity:    p.Quantity,
		Description: p.Description,
		Visible:     visible,
	}
}

type addListingRequest struct {
	SessionToken string         `json:"sessionToken"`
	NewListing   listingPayload `json:"newListing"`
}

type updateListingRequest struct {
	SessionToken   string         `json:"sessionToken"`
	UpdatedListing listingPayload `json:"updatedListing"`
}

// AddListing creates a catalog entry. Admin only.
func (h *ShopHandler) AddListing(c *gin.Context) {
	var req addListingRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid listing payload"))
		return
	}

	listing := req.NewListing.listing()
	if listing.Name == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing listing name"))
		return
	}

	if err := h.catalog.AddListing(c.Request.Context(), listing); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrListingExists, Status: http.StatusBadRequest, Message: "Listing already exists"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "Listing added"})
}

// UpdateListing overwrites the named catalog entry. Admin only.
func (h *ShopHandler) UpdateListing(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid listing payload"))
		return
	}

	listing := req.UpdatedListing.listing()
	if listing.Name == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing listing name"))
		return
	}

	if err := h.catalog.UpdateListing(c.Request.Context(), listing); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrListingNotFound, Status: http.StatusNotFound, Message: "Listing not found"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Listing updated"})
}

// DeleteListing removes the catalog entry named in the path. Admin only.
func (h *ShopHandler) DeleteListing(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing listing name"))
		return
	}

	if err := h.catalog.DeleteListing(c.Request.Context(), name); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrListingNotFound, Status: http.StatusNotFound, Message: "Listing not found"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Listing deleted"})
}
