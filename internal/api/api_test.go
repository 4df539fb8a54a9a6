package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
	"github.com/glenxmac/CC-PipeLineTool/internal/schedule"
	"github.com/glenxmac/CC-PipeLineTool/internal/timegrid"
)

// fakeStore is an in-memory persistence collaborator.
type fakeStore struct {
	bookings map[string]model.Booking
	deals    map[string]model.Deal
	nextID   int
	fail     bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookings: make(map[string]model.Booking),
		deals:    make(map[string]model.Deal),
	}
}

func (f *fakeStore) assignID() string {
	f.nextID++
	return fmt.Sprintf("srv-%d", f.nextID)
}

func (f *fakeStore) ListBookings(ctx context.Context, from, to string) ([]model.Booking, error) {
	if f.fail {
		return nil, fmt.Errorf("store down")
	}
	var out []model.Booking
	for _, b := range f.bookings {
		if b.Date >= from && b.Date <= to {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	if f.fail {
		return model.Booking{}, fmt.Errorf("store down")
	}
	b.ID = f.assignID()
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeStore) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error) {
	if f.fail {
		return model.Booking{}, fmt.Errorf("store down")
	}
	b.ID = id
	f.bookings[id] = b
	return b, nil
}

func (f *fakeStore) DeleteBooking(ctx context.Context, id string) error {
	if f.fail {
		return fmt.Errorf("store down")
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeStore) ListDeals(ctx context.Context) ([]model.Deal, error) {
	if f.fail {
		return nil, fmt.Errorf("store down")
	}
	var out []model.Deal
	for _, d := range f.deals {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error) {
	d.ID = f.assignID()
	f.deals[d.ID] = d
	return d, nil
}

func (f *fakeStore) UpdateDeal(ctx context.Context, id string, d model.Deal) (model.Deal, error) {
	d.ID = id
	f.deals[id] = d
	return d, nil
}

func (f *fakeStore) DeleteDeal(ctx context.Context, id string) error {
	delete(f.deals, id)
	return nil
}

func newTestServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	logger := zerolog.New(io.Discard)
	session := schedule.NewSession(timegrid.Default(), store, logger)
	session.SetMechanics([]model.Mechanic{{ID: "1", Name: "John Gill"}, {ID: "2", Name: "Nick Campbell"}})
	srv := httptest.NewServer(NewHTTPServer(session, store, &logger).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestSlotsEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/slots", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out struct {
		Slots     []string `json:"slots"`
		SlotCount int      `json:"slot_count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.SlotCount != 20 || len(out.Slots) != 20 || out.Slots[0] != "08:00" {
		t.Errorf("slots = %+v", out)
	}
}

func TestWeekEndpoint(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/week?date=2025-11-19", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out weekResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Monday != "2025-11-17" || len(out.Days) != 5 {
		t.Errorf("week = %+v", out)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/week?date=2025-11-19&shift=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("shifted status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if out.Monday != "2025-11-24" {
		t.Errorf("shifted monday = %s", out.Monday)
	}
}

func TestCreateBookingFlow(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	fields := model.Booking{
		Date:        "2025-11-17",
		Mechanic:    "John Gill",
		ServiceType: model.ServiceExpert,
		StartTime:   "09:00",
	}

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", fields)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var created model.Booking
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.DurationHours != 2 {
		t.Errorf("created = %+v", created)
	}

	// Overlapping proposal is rejected with 409 and not persisted.
	overlap := fields
	overlap.StartTime = "10:00"
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", overlap)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("overlap status = %d: %s", resp.StatusCode, body)
	}
	var rejected errorResponse
	_ = json.Unmarshal(body, &rejected)
	if rejected.Reason != "overlap" {
		t.Errorf("reason = %q", rejected.Reason)
	}
	if len(store.bookings) != 1 {
		t.Errorf("store has %d bookings, want 1", len(store.bookings))
	}

	// Out-of-hours proposal is 422.
	late := fields
	late.StartTime = "17:30"
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", late)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("late status = %d", resp.StatusCode)
	}

	// Missing field is 422.
	missing := fields
	missing.Mechanic = ""
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings", missing)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("missing status = %d", resp.StatusCode)
	}
}

func TestMoveBookingFlow(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	created, err := store.CreateBooking(context.Background(), model.Booking{
		Date: "2025-11-17", Mechanic: "John Gill", ServiceType: model.ServiceExpert,
		StartTime: "09:00", DurationHours: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Prime the session's store for the week.
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/bookings?date=2025-11-17", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}

	offset := 2
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings/"+created.ID+"/move", moveRequest{
		DropSlot:    10,
		OffsetSlots: &offset,
		Mechanic:    "Nick Campbell",
		Date:        "2025-11-18",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("move status = %d: %s", resp.StatusCode, body)
	}

	var moved model.Booking
	if err := json.Unmarshal(body, &moved); err != nil {
		t.Fatal(err)
	}
	if moved.StartTime != "12:00" || moved.Mechanic != "Nick Campbell" {
		t.Errorf("moved = %+v", moved)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings/ghost/move", moveRequest{DropSlot: 4})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("ghost move status = %d", resp.StatusCode)
	}
}

func TestDeleteBooking(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	created, _ := store.CreateBooking(context.Background(), model.Booking{
		Date: "2025-11-17", Mechanic: "John Gill", ServiceType: model.ServiceMin,
		StartTime: "08:00", DurationHours: 0.5,
	})
	doJSON(t, http.MethodGet, srv.URL+"/api/v1/bookings?date=2025-11-17", nil)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/bookings/"+created.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if len(store.bookings) != 0 {
		t.Error("booking not removed from collaborator")
	}
}

func TestPersistenceFailureIsBadGateway(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)
	store.fail = true

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/bookings?date=2025-11-17", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d: %s", resp.StatusCode, body)
	}
}

func TestDealLifecycleEndpoints(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/deals", model.Deal{
		Customer: "Ajay Naidoo", Technician: "John Gill", OpenDate: "2025-11-04", Value: 1000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created model.Deal
	_ = json.Unmarshal(body, &created)
	if created.Status != model.StatusEnquiry {
		t.Errorf("default status = %q", created.Status)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/deals/"+created.ID+"/close", closeRequest{
		Outcome: model.OutcomeInvoiced, CloseDate: "2025-11-20",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close status = %d: %s", resp.StatusCode, body)
	}
	var closed model.Deal
	_ = json.Unmarshal(body, &closed)
	if closed.ClosedOutcome != model.OutcomeInvoiced {
		t.Errorf("closed = %+v", closed)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/deals/"+created.ID+"/reopen", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reopen status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/deals/ghost/close", closeRequest{
		Outcome: model.OutcomeLost, CloseDate: "2025-11-20",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("ghost close status = %d", resp.StatusCode)
	}
}

func TestSummaryEndpoints(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store)
	store.deals["1"] = model.Deal{ID: "1", Technician: "John Gill", Status: model.StatusQuote,
		OpenDate: "2025-11-03", Value: 500}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/summary/weekly?month=2025-11", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("weekly status = %d", resp.StatusCode)
	}
	var matrix struct {
		Weeks []int `json:"weeks"`
	}
	_ = json.Unmarshal(body, &matrix)
	if len(matrix.Weeks) != 1 || matrix.Weeks[0] != 45 {
		t.Errorf("weeks = %v", matrix.Weeks)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/summary/monthly", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("monthly status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/summary/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if len(body) == 0 {
		t.Error("empty workbook body")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newFakeStore())

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/slots", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
