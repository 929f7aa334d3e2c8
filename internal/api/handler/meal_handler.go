package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

// MealHandler handles active and upcoming meals, likes and promotion.
type MealHandler struct {
	meals     ports.MealService
	promotion ports.PromotionService
}

func NewMealHandler(meals ports.MealService, promotion ports.PromotionService) *MealHandler {
	return &MealHandler{meals: meals, promotion: promotion}
}

type distributorRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type createMealRequest struct {
	Title       string             `json:"title"       validate:"required"`
	Category    string             `json:"category"    validate:"required,oneof=breakfast lunch dinner"`
	Image       string             `json:"image"       validate:"omitempty,url"`
	Price       float64            `json:"price"       validate:"gt=0"`
	Description string             `json:"description"`
	Ingredients []string           `json:"ingredients"`
	Rating      float64            `json:"rating"      validate:"gte=0,lte=5"`
	Distributor distributorRequest `json:"distributor" validate:"required"`
}

type promoteRequest struct {
	ID string `json:"id" validate:"required"`
}

func (r createMealRequest) toInput() ports.CreateMealInput {
	return ports.CreateMealInput{
		Title:       r.Title,
		Category:    r.Category,
		Image:       r.Image,
		Price:       r.Price,
		Description: r.Description,
		Ingredients: r.Ingredients,
		Rating:      r.Rating,
		Distributor: domain.Distributor{Name: r.Distributor.Name, Email: r.Distributor.Email},
	}
}

// List handles GET /meals.
//
// @Summary      List meals
// @Tags         meals
// @Produce      json
// @Param        category  query     string  false  "breakfast, lunch or dinner"
// @Param        search    query     string  false  "Substring of the title"
// @Success      200       {array}   domain.Meal
// @Router       /meals [get]
func (h *MealHandler) List(c echo.Context) error {
	meals, err := h.meals.List(c.Request().Context(), domain.MealFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meals)
}

// Get handles GET /meal/:id.
//
// @Summary      Get a meal
// @Tags         meals
// @Produce      json
// @Param        id   path      string  true  "Meal id"
// @Success      200  {object}  domain.Meal
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /meal/{id} [get]
func (h *MealHandler) Get(c echo.Context) error {
	meal, err := h.meals.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meal)
}

// Create handles POST /meals.
//
// @Summary      Post a meal
// @Tags         meals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createMealRequest  true  "Meal"
// @Success      201   {object}  domain.WriteResult
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /meals [post]
func (h *MealHandler) Create(c echo.Context) error {
	var req createMealRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.meals.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Like handles POST /meal/:id/like. Each user counts once.
//
// @Summary      Like a meal
// @Tags         meals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meal id"
// @Success      200  {object}  domain.WriteResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /meal/{id}/like [post]
func (h *MealHandler) Like(c echo.Context) error {
	email, err := authEmail(c)
	if err != nil {
		return err
	}

	res, err := h.meals.Like(c.Request().Context(), c.Param("id"), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ListUpcoming handles GET /upcoming-meals.
//
// @Summary      List upcoming meals
// @Tags         upcoming
// @Produce      json
// @Success      200  {array}  domain.Meal
// @Router       /upcoming-meals [get]
func (h *MealHandler) ListUpcoming(c echo.Context) error {
	meals, err := h.meals.ListUpcoming(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meals)
}

// CreateUpcoming handles POST /upcoming-meals.
//
// @Summary      Post an upcoming meal
// @Tags         upcoming
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createMealRequest  true  "Meal"
// @Success      201   {object}  domain.WriteResult
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /upcoming-meals [post]
func (h *MealHandler) CreateUpcoming(c echo.Context) error {
	var req createMealRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.meals.CreateUpcoming(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Promote handles POST /moveMeal.
//
// @Summary      Promote an upcoming meal to the menu
// @Tags         upcoming
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      promoteRequest  true  "Upcoming meal id"
// @Success      200   {object}  domain.WriteResult
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string  "partial failure"
// @Router       /moveMeal [post]
func (h *MealHandler) Promote(c echo.Context) error {
	var req promoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.promotion.Promote(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
