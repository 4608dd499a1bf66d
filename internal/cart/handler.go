package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

// CatalogClient is the slice of the menu service the handler needs: product
// and ingredient lookups by id.
type CatalogClient interface {
	Product(ctx context.Context, id int64) (*Product, error)
	Ingredient(ctx context.Context, id int64) (*IngredientLine, error)
}

type Handler struct {
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
	cartRepo CartStateRepo
	catalog  CatalogClient
	promos   *PromoCache
	checkout *CheckoutService
}

type HandlerDeps struct {
	CartRepo CartStateRepo
	Catalog  CatalogClient
	Promos   *PromoCache
	Checkout *CheckoutService
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return &Handler{
		config:   config,
		logger:   logger,
		tlm:      telemetry.NewHTTP(),
		cartRepo: hd.CartRepo,
		catalog:  hd.Catalog,
		promos:   hd.Promos,
		checkout: hd.Checkout,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/carts/{cartID}", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)

		r.Post("/items", h.AddItem)
		r.Delete("/items", h.RemoveItem)

		r.Route("/draft", func(r chi.Router) {
			r.Get("/", h.GetDraft)
			r.Delete("/", h.ClearDraft)
			r.Post("/ingredients", h.AddDraftIngredient)
			r.Delete("/ingredients/{ingredientID}", h.RemoveDraftIngredient)
			r.Post("/promote", h.PromoteDraft)
		})

		r.Post("/checkout", h.Checkout)
	})

	r.Route("/promos", func(r chi.Router) {
		r.Get("/{code}", h.GetPromo)
	})
}

// CartView is the full cart returned to the client: the stored state plus
// the recomputed nutrition and price summary.
type CartView struct {
	CartID    string           `json:"cart_id"`
	State     *CartState       `json:"state"`
	Summary   NutritionSummary `json:"summary"`
	Totals    CheckoutTotals   `json:"totals"`
	ItemCount int              `json:"item_count"`
}

// Cart handlers

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetCart")
	defer finish()

	log := h.log(r)

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	apt.RespondSuccess(w, h.cartView(store))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearCart")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	if err := store.Clear(ctx); err != nil {
		log.Error("cannot clear cart", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not clear cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddItemRequest adds a line by reference (product_id, resolved against the
// catalog) or, with is_custom set, by an embedded custom-meal snapshot whose
// summary is rederived server-side before it enters the cart.
type AddItemRequest struct {
	ProductID int64    `json:"product_id,omitempty"`
	Calories  float64  `json:"calories,omitempty"`
	Amount    int      `json:"amount"`
	IsCustom  bool     `json:"is_custom,omitempty"`
	Product   *Product `json:"product,omitempty"`
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	var req AddItemRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	if req.Amount < 1 || req.Amount > MaxAmountPerLine {
		log.Debug("invalid amount in add item request", "amount", req.Amount)
		apt.RespondError(w, http.StatusBadRequest, "amount must be between 1 and 10")
		return
	}

	if req.IsCustom {
		h.addCustomItem(w, r, store, req, log)
		return
	}

	if req.ProductID == 0 {
		log.Debug("missing product id in add item request")
		apt.RespondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	product, err := h.catalog.Product(ctx, req.ProductID)
	if err != nil {
		log.Info("cannot fetch product", "error", err, "product_id", req.ProductID)
		apt.RespondError(w, http.StatusBadRequest, "Unknown product")
		return
	}

	scaled := ProductForCalories(product, req.Calories)

	if err := store.AddItem(ctx, scaled, req.Amount, false); err != nil {
		log.Error("cannot add item", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not add item to cart")
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, h.cartView(store))
}

// addCustomItem adds a custom-meal snapshot to the custom collection. Used
// to re-add a previously ordered custom meal; the draft flow is the other
// way in. Nutrition and price are rederived from the ingredient list, so a
// stale or tampered summary never survives.
func (h *Handler) addCustomItem(w http.ResponseWriter, r *http.Request, store *CartStore, req AddItemRequest, log apt.Logger) {
	ctx := r.Context()

	if req.Product == nil || len(req.Product.Ingredients) == 0 {
		log.Debug("custom item without ingredient snapshot")
		apt.RespondError(w, http.StatusBadRequest, "A custom meal snapshot with ingredients is required")
		return
	}

	snapshot := req.Product.Clone()
	snapshot.ProductType = ProductTypeCustom
	if snapshot.ID == 0 {
		snapshot.ID = time.Now().UnixMilli()
	}

	for i := range snapshot.Ingredients {
		if err := ValidateIngredientWeight(&snapshot.Ingredients[i]); err != nil {
			log.Debug("custom item ingredient out of bounds", "error", err)
			apt.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	RecalculateCustomMealSummary(snapshot)

	if err := store.AddItem(ctx, snapshot, req.Amount, true); err != nil {
		log.Error("cannot add custom item", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not add item to cart")
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, h.cartView(store))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	productIDStr := r.URL.Query().Get("product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil {
		log.Debug("invalid product_id parameter", "product_id", productIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid product_id parameter")
		return
	}

	var calories float64
	if caloriesStr := r.URL.Query().Get("calories"); caloriesStr != "" {
		calories, err = strconv.ParseFloat(caloriesStr, 64)
		if err != nil {
			log.Debug("invalid calories parameter", "calories", caloriesStr)
			apt.RespondError(w, http.StatusBadRequest, "Invalid calories parameter")
			return
		}
	}

	isCustom := r.URL.Query().Get("is_custom") == "true"

	if err := store.RemoveItem(ctx, productID, calories, isCustom); err != nil {
		log.Error("cannot remove item", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not remove item from cart")
		return
	}

	apt.RespondSuccess(w, h.cartView(store))
}

// Draft handlers

func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetDraft")
	defer finish()

	log := h.log(r)

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	draft := store.Draft()
	if draft == nil {
		apt.RespondError(w, http.StatusNotFound, "No custom meal draft")
		return
	}

	apt.RespondSuccess(w, draft)
}

func (h *Handler) ClearDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearDraft")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	if err := store.ClearDraft(ctx); err != nil {
		log.Error("cannot clear draft", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not clear custom meal draft")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type AddIngredientRequest struct {
	IngredientID int64   `json:"ingredient_id"`
	Weight       float64 `json:"weight"`
}

func (h *Handler) AddDraftIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddDraftIngredient")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	var req AddIngredientRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	if req.IngredientID == 0 {
		log.Debug("missing ingredient id in add ingredient request")
		apt.RespondError(w, http.StatusBadRequest, "ingredient_id is required")
		return
	}

	ingredient, err := h.catalog.Ingredient(ctx, req.IngredientID)
	if err != nil {
		log.Info("cannot fetch ingredient", "error", err, "ingredient_id", req.IngredientID)
		apt.RespondError(w, http.StatusBadRequest, "Unknown ingredient")
		return
	}

	ingredient.WeightGrams = req.Weight
	if err := ValidateIngredientWeight(ingredient); err != nil {
		log.Debug("ingredient weight out of bounds", "error", err, "ingredient_id", req.IngredientID)
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.AddDraftIngredient(ctx, *ingredient); err != nil {
		log.Error("cannot add draft ingredient", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not add ingredient to custom meal")
		return
	}

	apt.RespondSuccess(w, store.Draft())
}

func (h *Handler) RemoveDraftIngredient(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveDraftIngredient")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	idStr := chi.URLParam(r, "ingredientID")
	ingredientID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Debug("invalid ingredient id", "ingredientID", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid ingredient ID")
		return
	}

	if err := store.RemoveDraftIngredient(ctx, ingredientID); err != nil {
		log.Error("cannot remove draft ingredient", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusInternalServerError, "Could not remove ingredient from custom meal")
		return
	}

	apt.RespondSuccess(w, store.Draft())
}

func (h *Handler) PromoteDraft(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PromoteDraft")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	line, err := store.PromoteDraft(ctx)
	if err != nil {
		log.Debug("cannot promote draft", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, line)
}

// Checkout handler

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Checkout")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	store, ok := h.loadStore(w, r, log)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	result, validationErrs, err := h.checkout.Checkout(ctx, store, req)
	if err != nil {
		if errors.Is(err, ErrCheckoutInFlight) {
			log.Info("duplicate checkout attempt", "cart_key", store.Key())
			apt.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("checkout failed", "error", err, "cart_key", store.Key())
		apt.RespondError(w, http.StatusBadGateway, "Could not complete checkout")
		return
	}
	if len(validationErrs) > 0 {
		log.Info("checkout rejected", "cart_key", store.Key(), "errors", len(validationErrs))
		apt.Respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"errors": validationErrs,
		}, nil)
		return
	}

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, result)
}

// Promo handlers

func (h *Handler) GetPromo(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetPromo")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	code := chi.URLParam(r, "code")
	if code == "" {
		log.Debug("missing promo code parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing promo code")
		return
	}

	promo, err := h.promos.Ensure(ctx, code)
	if err != nil {
		log.Info("cannot fetch promo", "error", err, "promo_code", code)
		apt.RespondError(w, http.StatusNotFound, "Promo not found")
		return
	}
	if !promo.IsActive {
		apt.RespondError(w, http.StatusNotFound, "Promo not found")
		return
	}

	apt.RespondSuccess(w, promo)
}

// Helpers

func (h *Handler) loadStore(w http.ResponseWriter, r *http.Request, log apt.Logger) (*CartStore, bool) {
	idStr := chi.URLParam(r, "cartID")
	if idStr == "" {
		log.Debug("missing cart id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing cart ID")
		return nil, false
	}

	cartID, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid cart id parameter", "cartID", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid cart ID")
		return nil, false
	}

	store := NewCartStore(h.cartRepo, cartID.String(), h.logger)
	if err := store.Load(r.Context()); err != nil {
		log.Error("cannot load cart", "error", err, "cart_key", cartID.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load cart")
		return nil, false
	}

	return store, true
}

func (h *Handler) cartView(store *CartStore) CartView {
	official, custom := store.Items()
	summary := CalculateNutritionSummary(append(official, custom...))
	return CartView{
		CartID:    store.Key(),
		State:     store.State(),
		Summary:   summary,
		Totals:    h.checkout.Totals(summary.TotalPrice),
		ItemCount: len(official) + len(custom),
	}
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, log apt.Logger, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
