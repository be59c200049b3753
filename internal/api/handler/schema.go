package handler

import (
	"time"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResponse struct {
	Message string       `json:"message,omitempty"`
	User    userResponse `json:"user"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// --- Items ---

type createItemRequest struct {
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category"    validate:"required"`
	Quantity    *int     `json:"quantity"    validate:"required,min=0"`
	Price       *float64 `json:"price"       validate:"required,min=0"`
}

// updateItemRequest carries a partial update; absent fields keep their value.
type updateItemRequest struct {
	ID          string   `json:"id"          validate:"required"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Quantity    *int     `json:"quantity"    validate:"omitnil,min=0"`
	Price       *float64 `json:"price"       validate:"omitnil,min=0"`
}

type itemResponse struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type itemEnvelope struct {
	Message string       `json:"message,omitempty"`
	Item    itemResponse `json:"item"`
}

type itemListResponse struct {
	Items []itemResponse `json:"items"`
}

func toItemResponse(it *domain.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Category:    it.Category,
		Quantity:    it.Quantity,
		Price:       it.Price,
		CreatedBy:   it.CreatedBy,
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}
