package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"autoparts-store/cart"
	"autoparts-store/middlewares"
	"autoparts-store/models"
	"autoparts-store/notifier"
	"autoparts-store/repository"
	"autoparts-store/services"
	"autoparts-store/storage"
	"autoparts-store/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	store  *repository.MemoryStore
	hub    *notifier.Hub
	events *capturePublisher
}

type capturePublisher struct {
	events []models.OrderStatusEvent
}

func (c *capturePublisher) PublishStatusEvent(ev models.OrderStatusEvent) error {
	c.events = append(c.events, ev)
	return nil
}

// newTestEnv wires the full route tree the way the server does, backed by the
// in-memory store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	hub := notifier.NewHub()
	events := &capturePublisher{}
	carts := cart.NewStore("")

	blobs, err := storage.NewStore(t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	checkoutSvc := services.NewCheckoutService(store, carts, true)
	adminSvc := services.NewAdminService(store, store, events)

	auth := &AuthController{Users: store, Hub: hub, JWTSecret: testSecret}
	catalog := &CatalogController{Catalog: store, Admin: adminSvc, Blobs: blobs}
	cartCtl := &CartController{Carts: carts, Catalog: store}
	orders := &OrderController{Checkout: checkoutSvc, Orders: store, Admin: adminSvc}
	admin := &AdminController{Admin: adminSvc}

	r := gin.New()
	r.POST("/api/register", auth.Register)
	r.POST("/api/login", auth.Login)
	r.GET("/api/categories", catalog.ListCategories)
	r.GET("/api/products", catalog.ListProducts)

	authGroup := r.Group("/api")
	authGroup.Use(middlewares.AuthMiddleware(testSecret))
	{
		authGroup.POST("/logout", auth.Logout)
		authGroup.GET("/me", auth.Me)

		authGroup.GET("/cart", cartCtl.GetCart)
		authGroup.POST("/cart", cartCtl.AddToCart)
		authGroup.DELETE("/cart/:productId", cartCtl.RemoveFromCart)
		authGroup.POST("/cart/clear", cartCtl.ClearCart)

		authGroup.POST("/orders", orders.PlaceOrder)
		authGroup.GET("/orders", orders.ListMyOrders)
		authGroup.GET("/orders/:id", orders.GetOrderDetails)
		authGroup.DELETE("/orders/:id", orders.DeleteMyOrder)

		adminGroup := authGroup.Group("/admin")
		adminGroup.Use(middlewares.AdminOnly())
		{
			adminGroup.GET("/orders", admin.ListOrders)
			adminGroup.GET("/orders/:id", admin.OrderDetails)
			adminGroup.POST("/orders/:id/verify", admin.VerifyPayment)
			adminGroup.POST("/orders/:id/reject", admin.RejectOrder)
			adminGroup.DELETE("/orders/:id", admin.DeleteOrder)

			adminGroup.POST("/categories", catalog.CreateCategory)
			adminGroup.POST("/products", catalog.CreateProduct)
			adminGroup.PUT("/products/:id", catalog.UpdateProduct)
			adminGroup.DELETE("/products/:id", catalog.DeleteProduct)
			adminGroup.POST("/images", catalog.UploadImage)
		}
	}

	return &testEnv{router: r, store: store, hub: hub, events: events}
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// addUser seeds a user directly and returns a session token for it.
func (e *testEnv) addUser(t *testing.T, id, name string, role models.Role) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	err := e.store.CreateUser(context.Background(), &repository.User{
		Profile:      models.Profile{ID: id, FullName: name, Role: role},
		Email:        id + "@example.com",
		PasswordHash: string(hash),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := utils.GenerateToken(testSecret, id, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (e *testEnv) addProduct(t *testing.T, id, name string, price float64) {
	t.Helper()
	if err := e.store.CreateProduct(context.Background(), &models.Product{ID: id, Name: name, Price: price}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/register", "", gin.H{
		"email": "ayu@example.com", "password": "password1", "full_name": "Ayu Lestari",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var reg struct {
		Token   string         `json:"token"`
		Profile models.Profile `json:"profile"`
	}
	decode(t, w, &reg)
	if reg.Token == "" || reg.Profile.Role != models.RoleCustomer {
		t.Fatalf("register payload wrong: %+v", reg)
	}

	// Same email again is a conflict.
	w = env.doJSON(t, http.MethodPost, "/api/register", "", gin.H{
		"email": "ayu@example.com", "password": "password1", "full_name": "Ayu Lestari",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/login", "", gin.H{
		"email": "ayu@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", w.Code)
	}

	w = env.doJSON(t, http.MethodPost, "/api/login", "", gin.H{
		"email": "ayu@example.com", "password": "password1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)

	w = env.doJSON(t, http.MethodGet, "/api/me", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d %s", w.Code, w.Body.String())
	}
	var me struct {
		IsAdmin bool           `json:"is_admin"`
		Profile models.Profile `json:"profile"`
	}
	decode(t, w, &me)
	if me.IsAdmin || me.Profile.FullName != "Ayu Lestari" {
		t.Fatalf("me payload wrong: %+v", me)
	}
	// Fetching the profile registers the notifier subscription.
	if !env.hub.Subscribed(me.Profile.ID) {
		t.Fatalf("me should subscribe the user to notifications")
	}

	w = env.doJSON(t, http.MethodPost, "/api/logout", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	if env.hub.Subscribed(me.Profile.ID) {
		t.Fatalf("logout should tear the subscription down")
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	if w := env.doJSON(t, http.MethodGet, "/api/cart", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w := env.doJSON(t, http.MethodGet, "/api/cart", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
}

func TestAdminGate(t *testing.T) {
	env := newTestEnv(t)
	customer := env.addUser(t, "u1", "Citra Dewi", models.RoleCustomer)
	admin := env.addUser(t, "a1", "Admin", models.RoleAdmin)

	if w := env.doJSON(t, http.MethodGet, "/api/admin/orders", customer, nil); w.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: %d", w.Code)
	}
	if w := env.doJSON(t, http.MethodGet, "/api/admin/orders", admin, nil); w.Code != http.StatusOK {
		t.Fatalf("admin on admin route: %d %s", w.Code, w.Body.String())
	}
}

func TestCartEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.addUser(t, "u1", "Citra Dewi", models.RoleCustomer)
	env.addProduct(t, "p1", "Brake Pad Set", 5000)

	var resp struct {
		Items       []cart.Item `json:"items"`
		TotalAmount float64     `json:"total_amount"`
	}

	w := env.doJSON(t, http.MethodPost, "/api/cart", token, gin.H{"product_id": "p1"})
	if w.Code != http.StatusOK {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	w = env.doJSON(t, http.MethodPost, "/api/cart", token, gin.H{"product_id": "p1"})
	if w.Code != http.StatusOK {
		t.Fatalf("add again: %d", w.Code)
	}
	decode(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].Quantity != 2 || resp.TotalAmount != 10000 {
		t.Fatalf("cart after two adds: %+v", resp)
	}

	if w := env.doJSON(t, http.MethodPost, "/api/cart", token, gin.H{"product_id": "missing"}); w.Code != http.StatusNotFound {
		t.Fatalf("adding unknown product: %d", w.Code)
	}

	w = env.doJSON(t, http.MethodDelete, "/api/cart/p1", token, nil)
	decode(t, w, &resp)
	if len(resp.Items) != 0 || resp.TotalAmount != 0 {
		t.Fatalf("cart after remove: %+v", resp)
	}
}

func TestCheckoutAndReviewFlow(t *testing.T) {
	env := newTestEnv(t)
	customer := env.addUser(t, "u1", "Citra Dewi", models.RoleCustomer)
	admin := env.addUser(t, "a1", "Admin", models.RoleAdmin)
	env.addProduct(t, "p1", "Brake Pad Set", 5000)
	env.addProduct(t, "p2", "Oil Filter", 3000)

	// Fill the cart: two brake pads, one filter.
	for _, id := range []string{"p1", "p1", "p2"} {
		if w := env.doJSON(t, http.MethodPost, "/api/cart", customer, gin.H{"product_id": id}); w.Code != http.StatusOK {
			t.Fatalf("add %s: %d", id, w.Code)
		}
	}

	// A missing address is rejected before anything is written.
	if w := env.doJSON(t, http.MethodPost, "/api/orders", customer, gin.H{"transaction_id": "TXN-1"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing address: %d", w.Code)
	}

	w := env.doJSON(t, http.MethodPost, "/api/orders", customer, gin.H{
		"shipping_address": "12 Main St",
		"transaction_id":   "TXN-1",
		"idempotency_key":  "key-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", w.Code, w.Body.String())
	}
	var placed struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &placed)
	if placed.Order.TotalAmount != 13000 || placed.Order.Status != models.OrderWaitingVerification {
		t.Fatalf("order wrong: %+v", placed.Order)
	}

	// Cart drained by the successful checkout.
	var cartResp struct {
		Items []cart.Item `json:"items"`
	}
	w = env.doJSON(t, http.MethodGet, "/api/cart", customer, nil)
	decode(t, w, &cartResp)
	if len(cartResp.Items) != 0 {
		t.Fatalf("cart not cleared: %+v", cartResp.Items)
	}

	// A retry with a re-filled cart and the same key returns the original
	// order with 200 instead of creating a second one.
	env.doJSON(t, http.MethodPost, "/api/cart", customer, gin.H{"product_id": "p1"})
	w = env.doJSON(t, http.MethodPost, "/api/orders", customer, gin.H{
		"shipping_address": "12 Main St",
		"transaction_id":   "TXN-1",
		"idempotency_key":  "key-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("idempotent replay: %d %s", w.Code, w.Body.String())
	}
	var replay struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &replay)
	if replay.Order.ID != placed.Order.ID {
		t.Fatalf("replay created a new order: %s vs %s", replay.Order.ID, placed.Order.ID)
	}

	// Admin sees the order newest-first with the customer's name.
	w = env.doJSON(t, http.MethodGet, "/api/admin/orders", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin list: %d", w.Code)
	}
	var list []models.AdminOrder
	decode(t, w, &list)
	if len(list) != 1 || list[0].ID != placed.Order.ID || list[0].CustomerName != "Citra Dewi" {
		t.Fatalf("admin listing wrong: %+v", list)
	}

	// Verify the payment; order approved, event published.
	w = env.doJSON(t, http.MethodPost, "/api/admin/orders/"+placed.Order.ID+"/verify", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", w.Code, w.Body.String())
	}
	if len(env.events.events) != 1 || env.events.events[0].NewStatus != models.OrderApproved {
		t.Fatalf("expected one approval event, got %+v", env.events.events)
	}

	// Verifying again is a conflict: approved is terminal.
	w = env.doJSON(t, http.MethodPost, "/api/admin/orders/"+placed.Order.ID+"/verify", admin, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double verify: %d", w.Code)
	}

	// The customer sees the approved order with its verified payment.
	w = env.doJSON(t, http.MethodGet, "/api/orders/"+placed.Order.ID, customer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("details: %d %s", w.Code, w.Body.String())
	}
	var details struct {
		Order   models.Order       `json:"order"`
		Items   []models.OrderItem `json:"items"`
		Payment *models.Payment    `json:"payment"`
	}
	decode(t, w, &details)
	if details.Order.Status != models.OrderApproved {
		t.Fatalf("order status = %s", details.Order.Status)
	}
	if len(details.Items) != 2 {
		t.Fatalf("expected 2 item rows, got %d", len(details.Items))
	}
	if details.Payment == nil || details.Payment.Status != models.PaymentVerified {
		t.Fatalf("payment wrong: %+v", details.Payment)
	}
}

func TestOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "u1", "Citra Dewi", models.RoleCustomer)
	other := env.addUser(t, "u2", "Rudi Hartono", models.RoleCustomer)
	env.addProduct(t, "p1", "Brake Pad Set", 5000)

	env.doJSON(t, http.MethodPost, "/api/cart", owner, gin.H{"product_id": "p1"})
	w := env.doJSON(t, http.MethodPost, "/api/orders", owner, gin.H{
		"shipping_address": "12 Main St", "transaction_id": "TXN-2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d", w.Code)
	}
	var placed struct {
		Order models.Order `json:"order"`
	}
	decode(t, w, &placed)

	// Another customer cannot see or delete it; both read as 404.
	if w := env.doJSON(t, http.MethodGet, "/api/orders/"+placed.Order.ID, other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign details: %d", w.Code)
	}
	if w := env.doJSON(t, http.MethodDelete, "/api/orders/"+placed.Order.ID, other, nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: %d", w.Code)
	}

	// The owner's delete cascades.
	if w := env.doJSON(t, http.MethodDelete, "/api/orders/"+placed.Order.ID, owner, nil); w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: %d", w.Code)
	}
	if w := env.doJSON(t, http.MethodGet, "/api/orders/"+placed.Order.ID, owner, nil); w.Code != http.StatusNotFound {
		t.Fatalf("order should be gone: %d", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "a1", "Admin", models.RoleAdmin)

	w := env.doJSON(t, http.MethodPost, "/api/admin/categories", admin, gin.H{"name": "Brakes"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category: %d %s", w.Code, w.Body.String())
	}
	var cat models.Category
	decode(t, w, &cat)

	w = env.doJSON(t, http.MethodPost, "/api/admin/products", admin, gin.H{
		"name": "Brake Pad Set", "price": 5000, "category_id": cat.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", w.Code, w.Body.String())
	}
	var created models.Product
	decode(t, w, &created)
	if created.VendorID != "a1" {
		t.Fatalf("vendor id not stamped: %+v", created)
	}

	// Zero price is rejected by validation.
	if w := env.doJSON(t, http.MethodPost, "/api/admin/products", admin, gin.H{
		"name": "Freebie", "price": 0,
	}); w.Code != http.StatusBadRequest {
		t.Fatalf("zero price: %d", w.Code)
	}

	// Public filtered listing.
	w = env.doJSON(t, http.MethodGet, "/api/products?category_id="+cat.ID+"&q=brake", "", nil)
	var products []models.Product
	decode(t, w, &products)
	if len(products) != 1 || products[0].ID != created.ID {
		t.Fatalf("filtered listing wrong: %+v", products)
	}
	w = env.doJSON(t, http.MethodGet, "/api/products?q=clutch", "", nil)
	decode(t, w, &products)
	if len(products) != 0 {
		t.Fatalf("expected empty listing, got %+v", products)
	}

	w = env.doJSON(t, http.MethodPut, "/api/admin/products/"+created.ID, admin, gin.H{
		"name": "Brake Pad Set Pro", "price": 6000,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated models.Product
	decode(t, w, &updated)
	if updated.Price != 6000 || updated.Name != "Brake Pad Set Pro" {
		t.Fatalf("update lost: %+v", updated)
	}

	if w := env.doJSON(t, http.MethodDelete, "/api/admin/products/"+created.ID, admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
}

func TestDeleteProduct_ConflictAndForce(t *testing.T) {
	env := newTestEnv(t)
	customer := env.addUser(t, "u1", "Citra Dewi", models.RoleCustomer)
	admin := env.addUser(t, "a1", "Admin", models.RoleAdmin)
	env.addProduct(t, "p1", "Brake Pad Set", 5000)

	env.doJSON(t, http.MethodPost, "/api/cart", customer, gin.H{"product_id": "p1"})
	if w := env.doJSON(t, http.MethodPost, "/api/orders", customer, gin.H{
		"shipping_address": "12 Main St", "transaction_id": "TXN-3",
	}); w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d", w.Code)
	}

	w := env.doJSON(t, http.MethodDelete, "/api/admin/products/p1", admin, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("delete referenced product: %d %s", w.Code, w.Body.String())
	}
	var conflict struct {
		Constraint string `json:"constraint"`
	}
	decode(t, w, &conflict)
	if conflict.Constraint != "foreign_key" {
		t.Fatalf("constraint flag missing: %s", w.Body.String())
	}

	if w := env.doJSON(t, http.MethodDelete, "/api/admin/products/p1?force=true", admin, nil); w.Code != http.StatusNoContent {
		t.Fatalf("force delete: %d %s", w.Code, w.Body.String())
	}
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser(t, "a1", "Admin", models.RoleAdmin)

	w := env.doJSON(t, http.MethodPost, "/api/admin/images", admin, gin.H{
		"file_name":    "pad.png",
		"content_type": "image/png",
		"data":         base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var up struct {
		Path      string `json:"path"`
		PublicURL string `json:"public_url"`
	}
	decode(t, w, &up)
	if up.Path == "" || up.PublicURL == "" {
		t.Fatalf("upload payload wrong: %s", w.Body.String())
	}

	if w := env.doJSON(t, http.MethodPost, "/api/admin/images", admin, gin.H{
		"content_type": "image/png",
		"data":         "not base64 !!!",
	}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad base64: %d", w.Code)
	}
}
