package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/shopmesh/storefront/internal/api/handlers"
	"github.com/shopmesh/storefront/internal/api/middleware"
	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/internal/services/mocks"
	"github.com/shopmesh/storefront/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// setupCartTest -> creates common test dependencies
func setupCartTest() (*mocks.CartService, *handlers.CartHandler) {
	mockCartService := new(mocks.CartService)
	cartHandler := handlers.NewCartHandler(mockCartService)
	return mockCartService, cartHandler
}

// createAuthenticatedRequest -> creates a request with authentication context
func createAuthenticatedRequest(method, url string, body []byte) (*http.Request, *models.Claims) {
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	userID := uuid.New()
	claims := &models.Claims{
		UserID: userID,
		Email:  "test@example.com",
		Role:   models.RoleShopper,
	}

	// Context with user claims & logger
	ctx := context.WithValue(req.Context(), middleware.UserContextKey, claims)
	logger := slog.Default()
	ctx = context.WithValue(ctx, middleware.LoggerKey, logger)
	req = req.WithContext(ctx)

	return req, claims
}

func cartResponseFor(userID uuid.UUID) *models.CartResponse {
	return &models.CartResponse{
		Cart: &models.Cart{
			ID:            uuid.New(),
			UserID:        userID,
			Amount:        3998,
			TotalItems:    2,
			TotalProducts: 1,
		},
		Lines: []models.CartLine{
			{
				ItemID:      uuid.New(),
				VariantID:   uuid.New(),
				ProductID:   uuid.New(),
				ProductName: "Canvas Tote",
				UnitPrice:   1999,
				Quantity:    2,
				Inventory:   7,
			},
		},
	}
}

func TestGetMyCart(t *testing.T) {
	t.Run("Success - Retrieve Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req, claims := createAuthenticatedRequest("GET", "/api/v1/cart", nil)
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("GetCart", mock.Anything, claims.UserID).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.GetMyCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		// Verify
		var resp *response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Data)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		_, cartHandler := setupCartTest()

		// Request without auth context
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		req.Header.Set("Content-Type", "application/json")

		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.GetMyCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		// Verify
		var resp *response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error.Message, "Authentication required")
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req, claims := createAuthenticatedRequest("GET", "/api/v1/cart", nil)
		recorder := httptest.NewRecorder()

		// Mock Call
		mockError := appErrors.DatabaseError("Failed to get cart")
		mockCartService.On("GetCart", mock.Anything, claims.UserID).Return(nil, mockError).Once()

		// Act
		handler := cartHandler.GetMyCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)

		mockCartService.AssertExpectations(t)
	})
}

func TestGetCartByID(t *testing.T) {
	t.Run("Success - Owner Reads Own Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		cartID := uuid.New()
		req, claims := createAuthenticatedRequest("GET", "/api/v1/carts/"+cartID.String(), nil)
		req.SetPathValue("id", cartID.String())
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)
		mockCart.Cart.ID = cartID

		// Mock Call
		mockCartService.On("GetCartByID", mock.Anything, cartID).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.GetCartByID()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Reading Another User's Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		cartID := uuid.New()
		req, _ := createAuthenticatedRequest("GET", "/api/v1/carts/"+cartID.String(), nil)
		req.SetPathValue("id", cartID.String())
		recorder := httptest.NewRecorder()

		// Cart owned by somebody else
		mockCart := cartResponseFor(uuid.New())
		mockCart.Cart.ID = cartID

		// Mock Call
		mockCartService.On("GetCartByID", mock.Anything, cartID).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.GetCartByID()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		// Verify
		var resp *response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.False(t, resp.Success)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Cart ID", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		req, _ := createAuthenticatedRequest("GET", "/api/v1/carts/not-a-uuid", nil)
		req.SetPathValue("id", "not-a-uuid")
		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.GetCartByID()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		mockCartService.AssertNotCalled(t, "GetCartByID")
	})
}

func TestAddItemHandler(t *testing.T) {
	t.Run("Success - Add Item To Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		addItemRequest := models.AddItemRequest{
			VariantID: uuid.New(),
			Quantity:  2,
		}
		requestBody, _ := json.Marshal(addItemRequest)

		req, claims := createAuthenticatedRequest("POST", "/api/v1/cart/items", requestBody)
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("AddItem", mock.Anything, claims.UserID, mock.MatchedBy(func(req *models.AddItemRequest) bool {
			return req.VariantID == addItemRequest.VariantID && req.Quantity == addItemRequest.Quantity
		})).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.AddItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp *response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.True(t, resp.Success)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Request Body", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		invalidJSON := []byte(`{"variant_id": "not-a-uuid", "quantity": "not-a-number"}`)

		req, _ := createAuthenticatedRequest("POST", "/api/v1/cart/items", invalidJSON)
		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.AddItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		mockCartService.AssertNotCalled(t, "AddItem")
	})

	t.Run("Failure - Insufficient Stock", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		addItemRequest := models.AddItemRequest{
			VariantID: uuid.New(),
			Quantity:  50,
		}
		requestBody, _ := json.Marshal(addItemRequest)

		req, claims := createAuthenticatedRequest("POST", "/api/v1/cart/items", requestBody)
		recorder := httptest.NewRecorder()

		// Mock Call
		mockError := appErrors.OutOfStockError([]appErrors.StockShortage{
			{VariantID: addItemRequest.VariantID.String(), ProductName: "Canvas Tote", Requested: 50, Available: 7},
		})
		mockCartService.On("AddItem", mock.Anything, claims.UserID, mock.Anything).Return(nil, mockError).Once()

		// Act
		handler := cartHandler.AddItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusConflict, recorder.Code)

		// Verify the shortage detail reaches the client
		var resp *response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Len(t, resp.Error.Shortages, 1)
		assert.Equal(t, 50, resp.Error.Shortages[0].Requested)
		assert.Equal(t, 7, resp.Error.Shortages[0].Available)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		_, cartHandler := setupCartTest()

		addItemRequest := models.AddItemRequest{VariantID: uuid.New(), Quantity: 2}
		requestBody, _ := json.Marshal(addItemRequest)

		req := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewBuffer(requestBody))
		req.Header.Set("Content-Type", "application/json")

		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.AddItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestUpdateItemHandler(t *testing.T) {
	t.Run("Success - Update Item Quantity", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		updateRequest := models.UpdateItemRequest{
			VariantID: uuid.New(),
			Quantity:  5,
		}
		requestBody, _ := json.Marshal(updateRequest)

		req, claims := createAuthenticatedRequest("PUT", "/api/v1/cart/items", requestBody)
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("UpdateItem", mock.Anything, claims.UserID, mock.MatchedBy(func(req *models.UpdateItemRequest) bool {
			return req.VariantID == updateRequest.VariantID && req.Quantity == updateRequest.Quantity
		})).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.UpdateItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Item Not Found", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		updateRequest := models.UpdateItemRequest{
			VariantID: uuid.New(),
			Quantity:  3,
		}
		requestBody, _ := json.Marshal(updateRequest)

		req, claims := createAuthenticatedRequest("PUT", "/api/v1/cart/items", requestBody)
		recorder := httptest.NewRecorder()

		// Mock Call
		mockError := appErrors.NotFoundError("Item not found in cart")
		mockCartService.On("UpdateItem", mock.Anything, claims.UserID, mock.Anything).Return(nil, mockError).Once()

		// Act
		handler := cartHandler.UpdateItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		mockCartService.AssertExpectations(t)
	})
}

func TestRemoveItemHandler(t *testing.T) {
	t.Run("Success - Remove Item", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()
		variantID := uuid.New()

		req, claims := createAuthenticatedRequest("DELETE", "/api/v1/cart/items/"+variantID.String(), nil)
		req.SetPathValue("variantId", variantID.String())
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("RemoveItem", mock.Anything, claims.UserID, variantID).Return(mockCart, nil).Once()

		// Act
		handler := cartHandler.RemoveItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Variant ID", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req, _ := createAuthenticatedRequest("DELETE", "/api/v1/cart/items/not-a-uuid", nil)
		req.SetPathValue("variantId", "not-a-uuid")
		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.RemoveItem()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		mockCartService.AssertNotCalled(t, "RemoveItem")
	})
}

func TestClearCartHandler(t *testing.T) {
	t.Run("Success - Clear Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req, claims := createAuthenticatedRequest("DELETE", "/api/v1/cart", nil)
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("GetCart", mock.Anything, claims.UserID).Return(mockCart, nil).Once()
		mockCartService.On("ClearCart", mock.Anything, mockCart.Cart.ID).Return(nil).Once()

		// Act
		handler := cartHandler.ClearCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp response.APIResponse
		err := json.Unmarshal(recorder.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.True(t, resp.Success)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req, claims := createAuthenticatedRequest("DELETE", "/api/v1/cart", nil)
		recorder := httptest.NewRecorder()

		mockCart := cartResponseFor(claims.UserID)

		// Mock Call
		mockCartService.On("GetCart", mock.Anything, claims.UserID).Return(mockCart, nil).Once()
		mockCartService.On("ClearCart", mock.Anything, mockCart.Cart.ID).
			Return(appErrors.DatabaseError("Failed to clear cart")).Once()

		// Act
		handler := cartHandler.ClearCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)

		mockCartService.AssertExpectations(t)
	})

	t.Run("Failure - Unauthorized", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartTest()

		req := httptest.NewRequest("DELETE", "/api/v1/cart", nil)
		recorder := httptest.NewRecorder()

		// Act
		handler := cartHandler.ClearCart()
		handler(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)

		mockCartService.AssertNotCalled(t, "ClearCart")
	})
}
