package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwangip/reservation-service/internal/domains/customers"
	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

// Mock customer repository
type mockCustomersRepo struct {
	listResult   []customers.Customer
	listErr      error
	getResult    customers.Customer
	getErr       error
	searchResult []customers.Customer
	searchErr    error
	topResult    []customers.Customer
	topErr       error

	searchCalls []string
	savedID     int64
	saved       []customers.Customer
}

func (m *mockCustomersRepo) ListAll(ctx context.Context) ([]customers.Customer, error) {
	return m.listResult, m.listErr
}

func (m *mockCustomersRepo) GetByID(ctx context.Context, id int64) (customers.Customer, error) {
	return m.getResult, m.getErr
}

func (m *mockCustomersRepo) Search(ctx context.Context, term string) ([]customers.Customer, error) {
	m.searchCalls = append(m.searchCalls, term)
	return m.searchResult, m.searchErr
}

func (m *mockCustomersRepo) TopByReservationCount(ctx context.Context, limit int) ([]customers.Customer, error) {
	return m.topResult, m.topErr
}

func (m *mockCustomersRepo) Save(ctx context.Context, c *customers.Customer) error {
	if c.ID == 0 {
		c.ID = m.savedID
	}
	m.saved = append(m.saved, *c)
	return nil
}

func (m *mockCustomersRepo) Delete(ctx context.Context, id int64) error {
	return errors.New("not implemented")
}

var _ customers.Repository = (*mockCustomersRepo)(nil)

// Mock reservation repository
type mockReservationsRepo struct {
	getResult   *reservations.Reservation
	getErr      error
	forCustomer []*reservations.Reservation

	deleteCalls []int64
	saved       []*reservations.Reservation
}

func (m *mockReservationsRepo) GetByID(ctx context.Context, id int64) (*reservations.Reservation, error) {
	return m.getResult, m.getErr
}

func (m *mockReservationsRepo) ForCustomer(ctx context.Context, customerID int64) ([]*reservations.Reservation, error) {
	return m.forCustomer, nil
}

func (m *mockReservationsRepo) Save(ctx context.Context, r *reservations.Reservation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.saved = append(m.saved, r)
	return nil
}

func (m *mockReservationsRepo) Delete(ctx context.Context, id int64) error {
	m.deleteCalls = append(m.deleteCalls, id)
	return nil
}

func (m *mockReservationsRepo) DeleteForCustomer(ctx context.Context, customerID int64) error {
	return errors.New("not implemented")
}

func (m *mockReservationsRepo) ClaimDueReminders(ctx context.Context, lead time.Duration) ([]int64, error) {
	return nil, errors.New("not implemented")
}

func (m *mockReservationsRepo) GetReminderDetails(ctx context.Context, id int64) (reservations.ReminderDetails, error) {
	return reservations.ReminderDetails{}, errors.New("not implemented")
}

var _ reservations.Repository = (*mockReservationsRepo)(nil)

// Mock cascade deleter
type mockDeleter struct {
	calls []int64
	err   error
}

func (m *mockDeleter) DeleteWithReservations(ctx context.Context, id int64) error {
	m.calls = append(m.calls, id)
	return m.err
}

var _ CustomerDeleter = (*mockDeleter)(nil)

func newTestHandler(t *testing.T, mc *mockCustomersRepo, mr *mockReservationsRepo, md *mockDeleter) http.Handler {
	t.Helper()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("Failed to build renderer: %v", err)
	}

	h := &Handler{
		customers:    mc,
		reservations: mr,
		deleter:      md,
		renderer:     renderer,
	}

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func testReservation(t *testing.T, id, customerID int64, numGuests int) *reservations.Reservation {
	t.Helper()

	res, err := reservations.New(customerID, time.Date(2026, time.March, 4, 19, 30, 0, 0, time.UTC), numGuests, "")
	if err != nil {
		t.Fatalf("Failed to build reservation: %v", err)
	}
	res.ID = id
	return res
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListCustomers_All(t *testing.T) {
	mc := &mockCustomersRepo{
		listResult: []customers.Customer{
			{ID: 1, FirstName: "Ana", LastName: "Lee"},
			{ID: 2, FirstName: "Bob", LastName: "Marsh"},
		},
	}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ana Lee") || !strings.Contains(body, "Bob Marsh") {
		t.Errorf("Expected both customers in list, got:\n%s", body)
	}
	if len(mc.searchCalls) != 0 {
		t.Errorf("Search should not be called without a search param, got %v", mc.searchCalls)
	}
}

func TestListCustomers_Search(t *testing.T) {
	mc := &mockCustomersRepo{
		searchResult: []customers.Customer{{ID: 1, FirstName: "Ana", LastName: "Lee"}},
	}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/?search=lee", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(mc.searchCalls) != 1 || mc.searchCalls[0] != "lee" {
		t.Errorf("Expected one search call with %q, got %v", "lee", mc.searchCalls)
	}
}

func TestListCustomers_SearchNoMatchIs404(t *testing.T) {
	mc := &mockCustomersRepo{
		searchErr: fmt.Errorf("no customers matching %q: %w", "zzz", customers.ErrNotFound),
	}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/?search=zzz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for empty search result, got %d", rec.Code)
	}
}

func TestTopCustomers_AttachesCounts(t *testing.T) {
	mc := &mockCustomersRepo{
		topResult: []customers.Customer{{ID: 1, FirstName: "Ana", LastName: "Lee"}},
	}
	mr := &mockReservationsRepo{
		forCustomer: []*reservations.Reservation{
			testReservation(t, 10, 1, 2),
			testReservation(t, 11, 1, 4),
			testReservation(t, 12, 1, 6),
		},
	}
	handler := newTestHandler(t, mc, mr, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/top-ten/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ana Lee") || !strings.Contains(body, "3 reservations") {
		t.Errorf("Expected customer with reservation count, got:\n%s", body)
	}
}

func TestCustomerDetail(t *testing.T) {
	mc := &mockCustomersRepo{
		getResult: customers.Customer{ID: 1, FirstName: "Ana", LastName: "Lee", Phone: "555-1111"},
	}
	mr := &mockReservationsRepo{
		forCustomer: []*reservations.Reservation{testReservation(t, 10, 1, 4)},
	}
	handler := newTestHandler(t, mc, mr, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/1/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Ana Lee") {
		t.Errorf("Expected customer name in detail page, got:\n%s", body)
	}
	if !strings.Contains(body, "March 4th 2026, 7:30 pm") {
		t.Errorf("Expected formatted reservation time in detail page, got:\n%s", body)
	}
}

func TestCustomerDetail_NotFound(t *testing.T) {
	mc := &mockCustomersRepo{
		getErr: fmt.Errorf("no such customer 42: %w", customers.ErrNotFound),
	}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/42/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestCreateCustomer_RedirectsToDetail(t *testing.T) {
	mc := &mockCustomersRepo{savedID: 7}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	rec := postForm(t, handler, "/add/", url.Values{
		"firstName": {"Ana"},
		"lastName":  {"Lee"},
		"phone":     {"555-1111"},
		"notes":     {""},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/7/" {
		t.Errorf("Expected redirect to /7/, got %q", loc)
	}
	if len(mc.saved) != 1 {
		t.Fatalf("Expected one save, got %d", len(mc.saved))
	}
	saved := mc.saved[0]
	if saved.FirstName != "Ana" || saved.LastName != "Lee" || saved.Phone != "555-1111" || saved.Notes != "" {
		t.Errorf("Saved fields mismatch: %+v", saved)
	}
}

func TestCreateCustomer_MissingBodyIs400(t *testing.T) {
	mc := &mockCustomersRepo{savedID: 7}
	handler := newTestHandler(t, mc, &mockReservationsRepo{}, &mockDeleter{})

	req := httptest.NewRequest(http.MethodPost, "/add/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing body, got %d", rec.Code)
	}
	if len(mc.saved) != 0 {
		t.Errorf("Nothing should be saved on a rejected body, got %d saves", len(mc.saved))
	}
}

func TestDeleteCustomer_UsesCascadeAndRedirects(t *testing.T) {
	md := &mockDeleter{}
	handler := newTestHandler(t, &mockCustomersRepo{}, &mockReservationsRepo{}, md)

	rec := postForm(t, handler, "/2/delete/", url.Values{"confirm": {"yes"}})

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %q", loc)
	}
	if len(md.calls) != 1 || md.calls[0] != 2 {
		t.Errorf("Expected cascade delete of customer 2, got %v", md.calls)
	}
}

func TestCreateReservation(t *testing.T) {
	mr := &mockReservationsRepo{}
	handler := newTestHandler(t, &mockCustomersRepo{}, mr, &mockDeleter{})

	rec := postForm(t, handler, "/3/add-reservation/", url.Values{
		"startAt":   {"2026-03-04T19:30"},
		"numGuests": {"4"},
		"notes":     {"window seat"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/3/" {
		t.Errorf("Expected redirect to /3/, got %q", loc)
	}
	if len(mr.saved) != 1 {
		t.Fatalf("Expected one saved reservation, got %d", len(mr.saved))
	}
	saved := mr.saved[0]
	if saved.CustomerID() != 3 || saved.NumGuests() != 4 || saved.Notes() != "window seat" {
		t.Errorf("Saved reservation mismatch: customer %d, guests %d, notes %q",
			saved.CustomerID(), saved.NumGuests(), saved.Notes())
	}
}

func TestCreateReservation_InvalidGuestCount(t *testing.T) {
	mr := &mockReservationsRepo{}
	handler := newTestHandler(t, &mockCustomersRepo{}, mr, &mockDeleter{})

	rec := postForm(t, handler, "/3/add-reservation/", url.Values{
		"startAt":   {"2026-03-04T19:30"},
		"numGuests": {"0"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for invalid guest count, got %d", rec.Code)
	}
	if len(mr.saved) != 0 {
		t.Errorf("Nothing should be saved for an invalid guest count, got %d saves", len(mr.saved))
	}
}

func TestUpdateReservation_RedirectsToOwningCustomer(t *testing.T) {
	mr := &mockReservationsRepo{getResult: testReservation(t, 9, 3, 2)}
	handler := newTestHandler(t, &mockCustomersRepo{}, mr, &mockDeleter{})

	rec := postForm(t, handler, "/9/edit-reservation/", url.Values{
		"numGuests": {"6"},
		"notes":     {"larger party"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/3/" {
		t.Errorf("Expected redirect to /3/, got %q", loc)
	}
	if len(mr.saved) != 1 {
		t.Fatalf("Expected one save, got %d", len(mr.saved))
	}
	if mr.saved[0].NumGuests() != 6 || mr.saved[0].Notes() != "larger party" {
		t.Errorf("Update mismatch: guests %d, notes %q", mr.saved[0].NumGuests(), mr.saved[0].Notes())
	}
}

func TestUpdateReservation_RejectedGuestCountLeavesValue(t *testing.T) {
	res := testReservation(t, 9, 3, 4)
	mr := &mockReservationsRepo{getResult: res}
	handler := newTestHandler(t, &mockCustomersRepo{}, mr, &mockDeleter{})

	rec := postForm(t, handler, "/9/edit-reservation/", url.Values{
		"numGuests": {"-1"},
		"notes":     {""},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	if res.NumGuests() != 4 {
		t.Errorf("Rejected assignment must leave the prior value, got %d", res.NumGuests())
	}
	if len(mr.saved) != 0 {
		t.Errorf("Nothing should be saved, got %d saves", len(mr.saved))
	}
}

func TestDeleteReservation_RedirectsToOwningCustomer(t *testing.T) {
	mr := &mockReservationsRepo{getResult: testReservation(t, 9, 3, 2)}
	handler := newTestHandler(t, &mockCustomersRepo{}, mr, &mockDeleter{})

	rec := postForm(t, handler, "/9/delete-reservation", url.Values{"confirm": {"yes"}})

	if rec.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/3/" {
		t.Errorf("Expected redirect to /3/, got %q", loc)
	}
	if len(mr.deleteCalls) != 1 || mr.deleteCalls[0] != 9 {
		t.Errorf("Expected delete of reservation 9, got %v", mr.deleteCalls)
	}
}

func TestEditReservationForm_LooksUpReservationThenCustomer(t *testing.T) {
	mc := &mockCustomersRepo{
		getResult: customers.Customer{ID: 3, FirstName: "Ana", LastName: "Lee"},
	}
	mr := &mockReservationsRepo{getResult: testReservation(t, 9, 3, 2)}
	handler := newTestHandler(t, mc, mr, &mockDeleter{})

	req := httptest.NewRequest(http.MethodGet, "/9/edit-reservation/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Ana Lee") {
		t.Errorf("Expected owning customer on the form, got:\n%s", body)
	}
}
