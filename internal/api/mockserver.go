package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storefront-console/storefront/internal/interfaces"
	"github.com/storefront-console/storefront/internal/logging"
)

// MockOptions configure the development store server.
type MockOptions struct {
	// Users maps user name to password.
	Users    map[string]string
	Products []interfaces.Product
	// Latency is added before every response.
	Latency time.Duration
	// SigningKey signs issued tokens.
	SigningKey []byte
	Logger     *logging.Logger
}

// MockServer imitates the public demo store closely enough for local work:
// plain-text 401s, empty 200s for unknown products and JWT tokens.
// Sending the X-Mock-Status header forces that status on any route.
type MockServer struct {
	mu   sync.RWMutex
	opts MockOptions
	mux  *http.ServeMux
}

// DefaultMockProducts is a small catalogue in the shape of the real store.
func DefaultMockProducts() []interfaces.Product {
	return []interfaces.Product{
		{ID: 1, Title: "Fjallraven - Foldsack No. 1 Backpack, Fits 15 Laptops", Price: 109.95,
			Description: "Your perfect pack for everyday use and walks in the forest.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
			Rating: interfaces.Rating{Rate: 3.9, Count: 120}},
		{ID: 2, Title: "Mens Casual Premium Slim Fit T-Shirts", Price: 22.3,
			Description: "Slim-fitting style, contrast raglan long sleeve, three-button henley placket.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg",
			Rating: interfaces.Rating{Rate: 4.1, Count: 259}},
		{ID: 5, Title: "John Hardy Women's Legends Naga Gold & Silver Dragon Station Chain Bracelet", Price: 695,
			Description: "From our Legends Collection, the Naga was inspired by the mythical water dragon.",
			Category:    "jewelery", Image: "https://fakestoreapi.com/img/71pWzhdJNwL._AC_UL640_QL65_ML3_.jpg",
			Rating: interfaces.Rating{Rate: 4.6, Count: 400}},
		{ID: 9, Title: "WD 2TB Elements Portable External Hard Drive - USB 3.0", Price: 64,
			Description: "USB 3.0 and USB 2.0 compatibility, fast data transfers.",
			Category:    "electronics", Image: "https://fakestoreapi.com/img/61IBBVJvSDL._AC_SY879_.jpg",
			Rating: interfaces.Rating{Rate: 3.3, Count: 203}},
		{ID: 18, Title: "MBJ Women's Solid Short Sleeve Boat Neck V", Price: 9.85,
			Description: "95% RAYON 5% SPANDEX, made in USA or imported.",
			Category:    "women's clothing", Image: "https://fakestoreapi.com/img/71z3kpMAYsL._AC_UY879_.jpg",
			Rating: interfaces.Rating{Rate: 4.7, Count: 130}},
	}
}

// NewMockServer creates the handler. Unset options get demo defaults.
func NewMockServer(opts MockOptions) *MockServer {
	if opts.Users == nil {
		opts.Users = map[string]string{"mor_2314": "83r5^_"}
	}
	if opts.Products == nil {
		opts.Products = DefaultMockProducts()
	}
	if len(opts.SigningKey) == 0 {
		opts.SigningKey = []byte("storefront-mock")
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger().WithComponent("mock")
	}

	s := &MockServer{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST "+EndpointLogin, s.loginHandler)
	s.mux.HandleFunc("GET "+EndpointProducts, s.productsHandler)
	s.mux.HandleFunc("GET "+EndpointProducts+"/{id}", s.productHandler)
	return s
}

// SetLatency changes the artificial delay at runtime.
func (s *MockServer) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Latency = d
}

func (s *MockServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	s.mu.RLock()
	latency := s.opts.Latency
	s.mu.RUnlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-r.Context().Done():
			return
		}
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	if forced := r.Header.Get("X-Mock-Status"); forced != "" {
		if code, err := strconv.Atoi(forced); err == nil && code >= 100 && code <= 599 {
			writeJSON(rec, code, map[string]string{"message": http.StatusText(code)})
			s.opts.Logger.LogHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
			return
		}
	}

	s.mux.ServeHTTP(rec, r)
	s.opts.Logger.LogHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
}

func (s *MockServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req interfaces.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "username and password are not provided in JSON format"})
		return
	}

	want, ok := s.opts.Users[req.Username]
	if !ok || want != req.Password {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("username or password is incorrect"))
		return
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  req.Username,
		"user": req.Username,
		"iat":  time.Now().Unix(),
	}).SignedString(s.opts.SigningKey)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "could not issue token"})
		return
	}
	writeJSON(w, http.StatusCreated, interfaces.LoginResponse{Token: token})
}

func (s *MockServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	products := s.opts.Products
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(products) {
		products = products[:limit]
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *MockServer) productHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "product id should be provided"})
		return
	}
	for _, p := range s.opts.Products {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	// The real store answers unknown ids with an empty 200.
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
