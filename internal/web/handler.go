package web

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwangip/reservation-service/internal/domains/customers"
	"github.com/mwangip/reservation-service/internal/domains/reservations"
)

// CustomerDeleter is the transaction-scoped cascade delete.
type CustomerDeleter interface {
	DeleteWithReservations(ctx context.Context, id int64) error
}

// Handler translates HTTP input into repository calls and hands the results
// to the renderer.
type Handler struct {
	customers    customers.Repository
	reservations reservations.Repository
	deleter      CustomerDeleter
	renderer     *Renderer
}

func NewHandler(db *sql.DB) (*Handler, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		customers:    customers.NewRepository(db),
		reservations: reservations.NewRepository(db),
		deleter:      customers.NewService(db),
		renderer:     renderer,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listCustomers)
	r.Get("/top-ten/", h.topCustomers)
	r.Get("/add/", h.newCustomerForm)
	r.Post("/add/", h.createCustomer)
	r.Get("/{id}/", h.customerDetail)
	r.Get("/{id}/edit/", h.editCustomerForm)
	r.Post("/{id}/edit/", h.updateCustomer)
	r.Post("/{id}/delete/", h.deleteCustomer)
	r.Post("/{id}/add-reservation/", h.createReservation)
	r.Get("/{id}/edit-reservation/", h.editReservationForm)
	r.Post("/{id}/edit-reservation/", h.updateReservation)
	r.Post("/{id}/delete-reservation", h.deleteReservation)
}

type customerListPage struct {
	Customers []customers.Customer
	Search    string
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	var (
		list []customers.Customer
		err  error
	)
	if search != "" {
		list, err = h.customers.Search(r.Context(), search)
	} else {
		list, err = h.customers.ListAll(r.Context())
	}
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "customer_list.html", customerListPage{Customers: list, Search: search})
}

type topCustomer struct {
	customers.Customer
	ReservationCount int
}

type topCustomersPage struct {
	Customers []topCustomer
}

func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	best, err := h.customers.TopByReservationCount(ctx, 10)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	// Attach the count each customer's reservations actually fetch to, rather
	// than trusting the ranking query's aggregate.
	rows := make([]topCustomer, 0, len(best))
	for _, c := range best {
		list, err := h.reservations.ForCustomer(ctx, c.ID)
		if err != nil {
			h.renderer.RenderError(w, err)
			return
		}
		rows = append(rows, topCustomer{Customer: c, ReservationCount: len(list)})
	}

	h.renderer.Render(w, http.StatusOK, "customer_best_list.html", topCustomersPage{Customers: rows})
}

func (h *Handler) newCustomerForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "customer_new_form.html", nil)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	if err := parseFormBody(r); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer := customers.Customer{
		FirstName: r.PostFormValue("firstName"),
		LastName:  r.PostFormValue("lastName"),
		Phone:     r.PostFormValue("phone"),
		Notes:     r.PostFormValue("notes"),
	}
	if err := h.customers.Save(r.Context(), &customer); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/%d/", customer.ID), http.StatusFound)
}

type customerDetailPage struct {
	Customer     customers.Customer
	Reservations []*reservations.Reservation
}

func (h *Handler) customerDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	list, err := h.reservations.ForCustomer(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "customer_detail.html", customerDetailPage{Customer: customer, Reservations: list})
}

type customerFormPage struct {
	Customer customers.Customer
}

func (h *Handler) editCustomerForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "customer_edit_form.html", customerFormPage{Customer: customer})
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	if err := parseFormBody(r); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer.FirstName = r.PostFormValue("firstName")
	customer.LastName = r.PostFormValue("lastName")
	customer.Phone = r.PostFormValue("phone")
	customer.Notes = r.PostFormValue("notes")
	if err := h.customers.Save(r.Context(), &customer); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/%d/", customer.ID), http.StatusFound)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	if err := h.deleter.DeleteWithReservations(r.Context(), id); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	if err := parseFormBody(r); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	startAt, err := parseStartAt(r.PostFormValue("startAt"))
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	numGuests, err := parseNumGuests(r.PostFormValue("numGuests"))
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	reservation, err := reservations.New(customerID, startAt, numGuests, r.PostFormValue("notes"))
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	if err := h.reservations.Save(r.Context(), reservation); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/%d/", customerID), http.StatusFound)
}

type reservationFormPage struct {
	Reservation *reservations.Reservation
	Customer    customers.Customer
}

// editReservationForm looks up the reservation named in the path, then its
// customer.
func (h *Handler) editReservationForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	reservation, err := h.reservations.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	customer, err := h.customers.GetByID(r.Context(), reservation.CustomerID())
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "reservation_edit.html", reservationFormPage{Reservation: reservation, Customer: customer})
}

func (h *Handler) updateReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	if err := parseFormBody(r); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	reservation, err := h.reservations.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	numGuests, err := parseNumGuests(r.PostFormValue("numGuests"))
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	if err := reservation.SetNumGuests(numGuests); err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	reservation.SetNotes(r.PostFormValue("notes"))

	if err := h.reservations.Save(r.Context(), reservation); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/%d/", reservation.CustomerID()), http.StatusFound)
}

func (h *Handler) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	reservation, err := h.reservations.GetByID(r.Context(), id)
	if err != nil {
		h.renderer.RenderError(w, err)
		return
	}
	customerID := reservation.CustomerID()

	if err := h.reservations.Delete(r.Context(), id); err != nil {
		h.renderer.RenderError(w, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/%d/", customerID), http.StatusFound)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id in path: %w", ErrBadRequest)
	}
	return id, nil
}

// parseFormBody rejects a request with no body before any store round trip.
func parseFormBody(r *http.Request) error {
	if r.Body == nil || r.ContentLength == 0 {
		return fmt.Errorf("missing request body: %w", ErrBadRequest)
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("unparseable request body: %w", ErrBadRequest)
	}
	return nil
}

var startAtLayouts = []string{
	"2006-01-02T15:04", // datetime-local inputs
	"2006-01-02 15:04",
	time.RFC3339,
}

func parseStartAt(v string) (time.Time, error) {
	for _, layout := range startAtLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start time %q", v)
}

func parseNumGuests(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", reservations.ErrInvalidNumGuests, v)
	}
	return n, nil
}
