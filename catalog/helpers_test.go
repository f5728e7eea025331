package catalog

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"realestate-insights/models"
	"realestate-insights/utils"
)

// fakeCatalog emulates the login and page endpoints of the catalog API.
type fakeCatalog struct {
	t *testing.T

	logins   atomic.Int32
	pageHits atomic.Int32

	mu          sync.Mutex
	loginDelay  time.Duration
	loginStatus []int // consumed one per login; 200 once exhausted
	tokenTTL    time.Duration
	rawToken    string
	issued      string
	pages       func(page, hit int) (status int, body any)
}

func newFakeCatalog(t *testing.T) (*fakeCatalog, *httptest.Server) {
	t.Helper()
	fc := &fakeCatalog{t: t, tokenTTL: time.Hour}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", fc.handleLogin)
	mux.HandleFunc("/empreendimentos", fc.handlePage)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fc, srv
}

func (fc *fakeCatalog) handleLogin(w http.ResponseWriter, r *http.Request) {
	n := fc.logins.Add(1)

	fc.mu.Lock()
	delay := fc.loginDelay
	status := http.StatusOK
	if len(fc.loginStatus) > 0 {
		status = fc.loginStatus[0]
		fc.loginStatus = fc.loginStatus[1:]
	}
	fc.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
		return
	}

	fc.mu.Lock()
	token := fc.rawToken
	if token == "" {
		token = signedToken(fc.t, time.Now().Add(fc.tokenTTL), int(n))
	}
	fc.issued = token
	fc.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// configure mutates the fake under its lock.
func (fc *fakeCatalog) configure(fn func(fc *fakeCatalog)) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fn(fc)
}

func (fc *fakeCatalog) handlePage(w http.ResponseWriter, r *http.Request) {
	hit := int(fc.pageHits.Add(1))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	fc.mu.Lock()
	issued := fc.issued
	pages := fc.pages
	fc.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+issued {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	status, body := pages(page, hit)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func signedToken(t *testing.T, exp time.Time, seq int) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "dashboard",
		"seq": seq,
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func records(ids ...int) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "nome": "Projeto " + strconv.Itoa(id)})
	}
	return out
}

type idNormalizer struct{}

func (idNormalizer) Normalize(raw []models.RawRecord) []*models.Project {
	out := make([]*models.Project, 0, len(raw))
	for _, r := range raw {
		id, _ := r["id"].(float64)
		out = append(out, &models.Project{ID: strconv.Itoa(int(id))})
	}
	return out
}

func newTestSession(srv *httptest.Server) *Session {
	return NewSession(srv.URL, Credentials{Email: "ops@example.com", Password: "secret"}, srv.Client(), utils.NewNopLogger())
}

func newTestFetcher(srv *httptest.Server, session *Session, pageSize int) *Fetcher {
	return NewFetcher(FetcherConfig{
		BaseURL:  srv.URL,
		PageSize: pageSize,
		Client:   srv.Client(),
	}, session, idNormalizer{}, utils.NewNopLogger())
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
