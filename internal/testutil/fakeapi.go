package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
)

// Routes served by FakeAPI, in http.ServeMux pattern form. Call counts and canned
// responses are keyed by these.
const (
	RouteTokenCreate  = "POST /auth/token/create/"
	RouteTokenRefresh = "POST /auth/token/refresh/"
	RouteTokenDestroy = "POST /auth/token/destroy/"
	RouteTokenVerify  = "POST /auth/token/verify/"
	RouteRegister     = "POST /auth/register/"
	RouteMeGet        = "GET /auth/me/"
	RouteMePut        = "PUT /auth/me/"
	RouteMePatch      = "PATCH /auth/me/"
	RouteStaffCheck   = "GET /auth/staff-check/"
	RouteProducts     = "GET /api/v1/products/"
	RouteProduct      = "GET /api/v1/products/{slug}/"
	RouteProductNew   = "POST /api/v1/products/"
	RouteCategories   = "GET /api/v1/categories/"
	RouteReviews      = "GET /api/v1/products/{slug}/reviews/"
	RouteReviewNew    = "POST /api/v1/products/{slug}/reviews/"
	RouteReviewPut    = "PUT /api/v1/products/{slug}/reviews/{id}/"
	RouteReviewDelete = "DELETE /api/v1/products/{slug}/reviews/{id}/"
	RouteCart         = "GET /api/v1/cart/"
	RouteCartAdd      = "POST /api/v1/cart/{id}/add/"
	RouteCartRemove   = "POST /api/v1/cart/{id}/remove/"
	RouteCartClear    = "POST /api/v1/cart/clear/{$}"
	RouteOrders       = "GET /api/v1/orders/"
	RouteOrder        = "GET /api/v1/orders/{id}/"
	RouteOrderNew     = "POST /api/v1/orders/"
)

type fakeAccount struct {
	user     auth.User
	password string
}

type cannedResponse struct {
	status int
	body   string
}

// FakeAPI is an in-process stand-in for the storefront REST API. It keeps users, tokens,
// catalog, carts, reviews and orders in memory and counts calls per route.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	seq        int64
	accounts   map[string]*fakeAccount
	access     map[string]string
	refresh    map[string]string
	products   []model.Product
	categories []model.Category
	reviews    map[string][]model.Review
	carts      map[string][]model.CartItem
	orders     map[string][]model.Order
	calls      map[string]int
	canned     map[string]cannedResponse
	lastAuth   map[string]string
}

// NewFakeAPI starts a FakeAPI and registers its shutdown with t.
func NewFakeAPI(t interface{ Cleanup(func()) }) *FakeAPI {
	f := &FakeAPI{
		accounts: map[string]*fakeAccount{},
		access:   map[string]string{},
		refresh:  map[string]string{},
		reviews:  map[string][]model.Review{},
		carts:    map[string][]model.CartItem{},
		orders:   map[string][]model.Order{},
		calls:    map[string]int{},
		canned:   map[string]cannedResponse{},
		lastAuth: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteTokenCreate, f.tokenCreate)
	mux.HandleFunc(RouteTokenRefresh, f.tokenRefresh)
	mux.HandleFunc(RouteTokenDestroy, f.tokenDestroy)
	mux.HandleFunc(RouteTokenVerify, f.tokenVerify)
	mux.HandleFunc(RouteRegister, f.register)
	mux.HandleFunc(RouteMeGet, f.meGet)
	mux.HandleFunc(RouteMePut, f.meWrite)
	mux.HandleFunc(RouteMePatch, f.meWrite)
	mux.HandleFunc(RouteStaffCheck, f.staffCheck)
	mux.HandleFunc(RouteProducts, f.productList)
	mux.HandleFunc(RouteProduct, f.productGet)
	mux.HandleFunc(RouteProductNew, f.productCreate)
	mux.HandleFunc(RouteCategories, f.categoryList)
	mux.HandleFunc(RouteReviews, f.reviewList)
	mux.HandleFunc(RouteReviewNew, f.reviewCreate)
	mux.HandleFunc(RouteReviewPut, f.reviewUpdate)
	mux.HandleFunc(RouteReviewDelete, f.reviewDelete)
	mux.HandleFunc(RouteCart, f.cartGet)
	mux.HandleFunc(RouteCartAdd, f.cartAdd)
	mux.HandleFunc(RouteCartRemove, f.cartRemove)
	mux.HandleFunc(RouteCartClear, f.cartClear)
	mux.HandleFunc(RouteOrders, f.orderList)
	mux.HandleFunc(RouteOrder, f.orderGet)
	mux.HandleFunc(RouteOrderNew, f.orderCreate)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := mux.Handler(r)
		f.mu.Lock()
		f.calls[pattern]++
		f.lastAuth[pattern] = r.Header.Get("Authorization")
		canned, ok := f.canned[pattern]
		f.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			_, _ = w.Write([]byte(canned.body))
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server root.
func (f *FakeAPI) URL() string { return f.Server.URL }

// AddUser registers an account. A zero ID is assigned automatically.
func (f *FakeAPI) AddUser(u auth.User, password string) auth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID()
	}
	f.accounts[strings.ToLower(u.Email)] = &fakeAccount{user: u, password: password}
	return u
}

// User returns the stored account for email.
func (f *FakeAPI) User(email string) (auth.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[strings.ToLower(email)]
	if !ok {
		return auth.User{}, false
	}
	return acc.user, true
}

// IssueTokens mints a token pair for email without going through the create endpoint.
func (f *FakeAPI) IssueTokens(email string) (access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issue(strings.ToLower(email))
}

// ExpireAccess invalidates every outstanding access token. Refresh tokens stay valid.
func (f *FakeAPI) ExpireAccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = map[string]string{}
}

// RevokeRefresh invalidates every outstanding refresh token.
func (f *FakeAPI) RevokeRefresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = map[string]string{}
}

// Respond makes route answer with status and body until Reset is called for it.
func (f *FakeAPI) Respond(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canned[route] = cannedResponse{status: status, body: body}
}

// Reset removes a canned response.
func (f *FakeAPI) Reset(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.canned, route)
}

// Calls returns how many requests route has received.
func (f *FakeAPI) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// LastAuthorization returns the Authorization header of the latest request to route.
func (f *FakeAPI) LastAuthorization(route string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth[route]
}

// AddCategory stores a category. A zero ID is assigned automatically.
func (f *FakeAPI) AddCategory(c model.Category) model.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		c.ID = f.nextID()
	}
	f.categories = append(f.categories, c)
	return c
}

// AddProduct stores a product. A zero ID is assigned automatically.
func (f *FakeAPI) AddProduct(p model.Product) model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.nextID()
	}
	f.products = append(f.products, p)
	return p
}

// AddReview stores a review for the product with slug.
func (f *FakeAPI) AddReview(slug string, r model.Review) model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		r.ID = f.nextID()
	}
	f.reviews[slug] = append(f.reviews[slug], r)
	return r
}

// ServerCart returns the server-side cart lines for email.
func (f *FakeAPI) ServerCart(email string) []model.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CartItem(nil), f.carts[strings.ToLower(email)]...)
}

// Orders returns the orders placed by email.
func (f *FakeAPI) Orders(email string) []model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Order(nil), f.orders[strings.ToLower(email)]...)
}

func (f *FakeAPI) nextID() int64 {
	f.seq++
	return f.seq
}

func (f *FakeAPI) issue(email string) (string, string) {
	id := f.nextID()
	access := fmt.Sprintf("access-%d", id)
	refresh := fmt.Sprintf("refresh-%d", id)
	f.access[access] = email
	f.refresh[refresh] = email
	return access, refresh
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// account resolves the bearer token. Callers must hold f.mu.
func (f *FakeAPI) account(r *http.Request) (*fakeAccount, bool) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, false
	}
	email, ok := f.access[tok]
	if !ok {
		return nil, false
	}
	acc, ok := f.accounts[email]
	return acc, ok
}

func (f *FakeAPI) requireAccount(w http.ResponseWriter, r *http.Request) (*fakeAccount, bool) {
	acc, ok := f.account(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Given token not valid for any token type",
			"code":   "token_not_valid",
		})
	}
	return acc, ok
}

func (f *FakeAPI) tokenCreate(w http.ResponseWriter, r *http.Request) {
	var in model.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(in.Email)
	acc, ok := f.accounts[email]
	if !ok || acc.password != in.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	access, refresh := f.issue(email)
	writeJSON(w, http.StatusOK, auth.TokenPair{Access: access, Refresh: refresh})
}

func (f *FakeAPI) tokenRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.refresh[in.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	delete(f.refresh, in.Refresh)
	access, refresh := f.issue(email)
	writeJSON(w, http.StatusOK, auth.TokenPair{Access: access, Refresh: refresh})
}

func (f *FakeAPI) tokenDestroy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, in.Refresh)
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		delete(f.access, tok)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) tokenVerify(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.access[in.Token]; !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{})
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var in model.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(in.Email)
	if _, exists := f.accounts[email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"email": {"user with this email already exists."},
		})
		return
	}
	u := auth.User{
		ID:        f.nextID(),
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	f.accounts[email] = &fakeAccount{user: u, password: in.Password}
	writeJSON(w, http.StatusCreated, u)
}

func (f *FakeAPI) meGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acc.user)
}

type profileFields struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
	Phone     *string `json:"phone"`
}

func (f *FakeAPI) meWrite(w http.ResponseWriter, r *http.Request) {
	var in profileFields
	avatar := ""
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeDetail(w, http.StatusBadRequest, "Malformed upload.")
			return
		}
		for name, dst := range map[string]**string{
			"first_name": &in.FirstName, "last_name": &in.LastName,
			"username": &in.Username, "phone": &in.Phone,
		} {
			if v, ok := r.MultipartForm.Value[name]; ok && len(v) > 0 {
				s := v[0]
				*dst = &s
			}
		}
		if files := r.MultipartForm.File["profile_picture"]; len(files) > 0 {
			avatar = "/media/profile_pictures/" + files[0].Filename
		}
	} else if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field may not be blank."}})
		return
	}
	if r.Method == http.MethodPut && in.Username == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&acc.user.FirstName, in.FirstName)
	apply(&acc.user.LastName, in.LastName)
	apply(&acc.user.Username, in.Username)
	apply(&acc.user.Phone, in.Phone)
	if avatar != "" {
		acc.user.ProfilePicture = avatar
	}
	writeJSON(w, http.StatusOK, acc.user)
}

func (f *FakeAPI) staffCheck(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_staff": acc.user.IsStaff})
}

func (f *FakeAPI) productList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	category := q.Get("category")

	f.mu.Lock()
	defer f.mu.Unlock()
	results := []model.Product{}
	for _, p := range f.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		results = append(results, p)
	}
	writeJSON(w, http.StatusOK, model.Page[model.Product]{Count: len(results), Results: results})
}

// product looks a product up by slug or numeric id. Callers must hold f.mu.
func (f *FakeAPI) product(ref string) (*model.Product, bool) {
	id, _ := strconv.ParseInt(ref, 10, 64)
	for i := range f.products {
		if f.products[i].Slug == ref || (id != 0 && f.products[i].ID == id) {
			return &f.products[i], true
		}
	}
	return nil, false
}

func (f *FakeAPI) productGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.product(r.PathValue("slug"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeAPI) productCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	if !acc.user.IsStaff {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	category := ""
	for _, c := range f.categories {
		if c.ID == in.Category {
			category = c.Name
		}
	}
	if category == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"category": {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", in.Category)},
		})
		return
	}
	p := model.Product{
		ID:          f.nextID(),
		Name:        in.Name,
		Slug:        strings.ReplaceAll(strings.ToLower(strings.TrimSpace(in.Name)), " ", "-"),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    category,
	}
	f.products = append(f.products, p)
	writeJSON(w, http.StatusCreated, p)
}

func (f *FakeAPI) categoryList(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]model.Category{}, f.categories...)
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) reviewList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slug := r.PathValue("slug")
	if _, ok := f.product(slug); !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	out := append([]model.Review{}, f.reviews[slug]...)
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) reviewCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	slug := r.PathValue("slug")
	p, ok := f.product(slug)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	for _, rv := range f.reviews[slug] {
		if rv.User == acc.user.Username {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"non_field_errors": {"You have already reviewed this product."},
			})
			return
		}
	}
	rv := model.Review{
		ID:        f.nextID(),
		Product:   p.ID,
		User:      acc.user.Username,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now().UTC(),
	}
	f.reviews[slug] = append(f.reviews[slug], rv)
	writeJSON(w, http.StatusCreated, rv)
}

// ownReview finds review id under slug written by acc. Callers must hold f.mu.
func (f *FakeAPI) ownReview(w http.ResponseWriter, r *http.Request, acc *fakeAccount) (int, bool) {
	slug := r.PathValue("slug")
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	for i, rv := range f.reviews[slug] {
		if rv.ID != id {
			continue
		}
		if rv.User != acc.user.Username {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return 0, false
		}
		return i, true
	}
	writeDetail(w, http.StatusNotFound, "Not found.")
	return 0, false
}

func (f *FakeAPI) reviewUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	i, ok := f.ownReview(w, r, acc)
	if !ok {
		return
	}
	list := f.reviews[r.PathValue("slug")]
	list[i].Rating = in.Rating
	list[i].Comment = in.Comment
	writeJSON(w, http.StatusOK, list[i])
}

func (f *FakeAPI) reviewDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	i, ok := f.ownReview(w, r, acc)
	if !ok {
		return
	}
	slug := r.PathValue("slug")
	f.reviews[slug] = append(f.reviews[slug][:i], f.reviews[slug][i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

// serverCartBody renders the nested cart document the API returns. Callers must hold f.mu.
func (f *FakeAPI) serverCartBody(email string) map[string]any {
	items := []map[string]any{}
	var total model.Price
	for i, it := range f.carts[email] {
		items = append(items, map[string]any{
			"id": i + 1,
			"product": map[string]any{
				"id":        it.ProductID,
				"name":      it.Name,
				"price":     it.Price,
				"thumbnail": it.Thumbnail,
				"category":  map[string]any{"name": it.Category},
			},
			"quantity": it.Quantity,
		})
		total += it.Subtotal()
	}
	return map[string]any{"items": items, "total": total}
}

func (f *FakeAPI) cartGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f.serverCartBody(strings.ToLower(acc.user.Email)))
}

func (f *FakeAPI) cartAdd(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	p, ok := f.product(r.PathValue("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if in.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"quantity": {"Ensure this value is greater than or equal to 1."},
		})
		return
	}
	email := strings.ToLower(acc.user.Email)
	cart := model.Cart{Items: f.carts[email]}
	item := p.CartItem(in.Quantity)
	existing := 0
	for _, it := range cart.Items {
		if it.ProductID == p.ID {
			existing = it.Quantity
		}
	}
	if existing+in.Quantity > p.Stock {
		writeDetail(w, http.StatusBadRequest, "Not enough stock available.")
		return
	}
	_ = cart.Add(item)
	f.carts[email] = cart.Items
	writeJSON(w, http.StatusOK, f.serverCartBody(email))
}

func (f *FakeAPI) cartRemove(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	email := strings.ToLower(acc.user.Email)
	cart := model.Cart{Items: f.carts[email]}
	if !cart.Remove(id) {
		writeDetail(w, http.StatusNotFound, "Item not in cart.")
		return
	}
	f.carts[email] = cart.Items
	writeJSON(w, http.StatusOK, f.serverCartBody(email))
}

func (f *FakeAPI) cartClear(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	delete(f.carts, strings.ToLower(acc.user.Email))
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) orderList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	out := append([]model.Order{}, f.orders[strings.ToLower(acc.user.Email)]...)
	writeJSON(w, http.StatusOK, model.Page[model.Order]{Count: len(out), Results: out})
}

func (f *FakeAPI) orderGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	for _, o := range f.orders[strings.ToLower(acc.user.Email)] {
		if o.ID == id {
			writeJSON(w, http.StatusOK, o)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Not found.")
}

func (f *FakeAPI) orderCreate(w http.ResponseWriter, r *http.Request) {
	var in model.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.requireAccount(w, r)
	if !ok {
		return
	}
	if len(in.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"items": {"This list may not be empty."}})
		return
	}
	order := model.Order{
		ID:              f.nextID(),
		Status:          model.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       time.Now().UTC(),
	}
	for _, it := range in.Items {
		p, ok := f.product(strconv.FormatInt(it.Product, 10))
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"items": {fmt.Sprintf("Product %d does not exist.", it.Product)},
			})
			return
		}
		line := model.OrderItem{Product: p.ID, Name: p.Name, Price: p.Price, Quantity: it.Quantity}
		order.Items = append(order.Items, line)
		order.Total += p.Price * model.Price(it.Quantity)
	}
	email := strings.ToLower(acc.user.Email)
	f.orders[email] = append(f.orders[email], order)
	writeJSON(w, http.StatusCreated, order)
}
