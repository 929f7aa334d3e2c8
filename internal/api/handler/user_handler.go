package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/ports"
)

// UserHandler handles user signup and administration.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type signupRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo" validate:"omitempty,url"`
}

type signupResponse struct {
	Message    string  `json:"message,omitempty"`
	InsertedID *string `json:"insertedId"`
}

type adminStatusResponse struct {
	Admin bool `json:"admin"`
}

// Signup handles POST /users. Signing up twice is not an error.
//
// @Summary      Register a user on first login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Profile from the identity provider"
// @Success      200   {object}  signupResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Signup(c.Request().Context(), ports.SignupInput{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		return err
	}

	resp := signupResponse{Message: res.Message}
	if res.InsertedID != "" {
		resp.InsertedID = &res.InsertedID
	}
	return c.JSON(http.StatusOK, resp)
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring of name or email"
// @Success      200     {array}   domain.User
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// AdminStatus handles GET /users/admin/:email for the caller's own email.
//
// @Summary      Check whether the caller is an admin
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller's email"
// @Success      200    {object}  adminStatusResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /users/admin/{email} [get]
func (h *UserHandler) AdminStatus(c echo.Context) error {
	email, err := requireSelf(c, c.Param("email"))
	if err != nil {
		return err
	}

	admin, err := h.service.IsAdmin(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminStatusResponse{Admin: admin})
}

// Get handles GET /user/:email for the caller's own profile.
//
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Caller's email"
// @Success      200    {object}  domain.User
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /user/{email} [get]
func (h *UserHandler) Get(c echo.Context) error {
	email, err := requireSelf(c, c.Param("email"))
	if err != nil {
		return err
	}

	user, err := h.service.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// MakeAdmin handles PATCH /users/admin/:id.
//
// @Summary      Grant the admin role
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.WriteResult
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/admin/{id} [patch]
func (h *UserHandler) MakeAdmin(c echo.Context) error {
	res, err := h.service.MakeAdmin(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
