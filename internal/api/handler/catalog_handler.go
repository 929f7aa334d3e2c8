package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/ports"
)

// CatalogHandler serves packages, meal requests and reviews.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type createRequestRequest struct {
	MealID string `json:"mealId" validate:"required"`
	Name   string `json:"name"`
}

type createReviewRequest struct {
	MealID  string `json:"mealId"  validate:"required"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"  validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ListPackages handles GET /packages.
//
// @Summary      List membership packages
// @Tags         packages
// @Produce      json
// @Success      200  {array}  domain.Package
// @Router       /packages [get]
func (h *CatalogHandler) ListPackages(c echo.Context) error {
	pkgs, err := h.service.ListPackages(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkgs)
}

// GetPackage handles GET /packages/:name.
//
// @Summary      Get a package by name
// @Tags         packages
// @Produce      json
// @Param        name  path      string  true  "Package name (silver, gold, platinum)"
// @Success      200   {object}  domain.Package
// @Failure      404   {object}  map[string]string
// @Router       /packages/{name} [get]
func (h *CatalogHandler) GetPackage(c echo.Context) error {
	pkg, err := h.service.GetPackage(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pkg)
}

// CreateRequest handles POST /requests. The requester is the caller.
//
// @Summary      Request a meal
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRequestRequest  true  "Meal to request"
// @Success      201   {object}  domain.WriteResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /requests [post]
func (h *CatalogHandler) CreateRequest(c echo.Context) error {
	email, err := authEmail(c)
	if err != nil {
		return err
	}
	var req createRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreateRequest(c.Request().Context(), ports.CreateRequestInput{
		MealID: req.MealID,
		Email:  email,
		Name:   req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// ListRequests handles GET /requests/:email.
//
// @Summary      List the caller's meal requests
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller's email"
// @Success      200    {array}   domain.MealRequest
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /requests/{email} [get]
func (h *CatalogHandler) ListRequests(c echo.Context) error {
	email, err := requireSelf(c, c.Param("email"))
	if err != nil {
		return err
	}

	reqs, err := h.service.ListRequests(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reqs)
}

// ServeRequest handles PATCH /requests/:id/serve.
//
// @Summary      Mark a meal request served
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request id"
// @Success      200  {object}  domain.WriteResult
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /requests/{id}/serve [patch]
func (h *CatalogHandler) ServeRequest(c echo.Context) error {
	res, err := h.service.ServeRequest(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// CreateReview handles POST /reviews.
//
// @Summary      Review a meal
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  domain.WriteResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /reviews [post]
func (h *CatalogHandler) CreateReview(c echo.Context) error {
	email, err := authEmail(c)
	if err != nil {
		return err
	}
	var req createReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreateReview(c.Request().Context(), ports.CreateReviewInput{
		MealID:  req.MealID,
		Email:   email,
		Name:    req.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// ListReviews handles GET /reviews/:mealId.
//
// @Summary      List reviews of a meal
// @Tags         reviews
// @Produce      json
// @Param        mealId  path     string  true  "Meal id"
// @Success      200     {array}  domain.Review
// @Router       /reviews/{mealId} [get]
func (h *CatalogHandler) ListReviews(c echo.Context) error {
	reviews, err := h.service.ListReviews(c.Request().Context(), c.Param("mealId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}
