package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mkarev/nftmarket/internal/auction"
	"github.com/mkarev/nftmarket/internal/ledger"
	"github.com/mkarev/nftmarket/internal/market"
	"github.com/mkarev/nftmarket/internal/model"
	"github.com/mkarev/nftmarket/internal/registry"
)

func newTestServer(t *testing.T) (*market.Coordinator, *registry.InMemory, uuid.UUID, *httptest.Server) {
	t.Helper()

	reg := registry.NewInMemory(nil)
	led := ledger.NewInMemory(nil)
	escrow := uuid.New()
	eng := auction.New(auction.DefaultConfig(), led, escrow, nil, nil)
	coord := market.New(market.Config{Account: escrow}, reg, led, eng, nil, nil)

	server := httptest.NewServer(NewHandler(coord, nil))
	t.Cleanup(server.Close)
	return coord, reg, escrow, server
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
}

func TestHandler_Health(t *testing.T) {
	coord, _, _, server := newTestServer(t)

	if _, err := coord.CreateItem(uuid.New(), "ipfs://meta"); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	var health struct {
		Status   string `json:"status"`
		Items    int    `json:"items"`
		Auctions int    `json:"auctions"`
	}
	getJSON(t, server.URL+"/health", http.StatusOK, &health)

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want %q", health.Status, "healthy")
	}
	if health.Items != 1 {
		t.Errorf("Items = %d, want 1", health.Items)
	}
	if health.Auctions != 0 {
		t.Errorf("Auctions = %d, want 0", health.Auctions)
	}
}

func TestHandler_Items(t *testing.T) {
	coord, reg, escrow, server := newTestServer(t)

	seller := uuid.New()
	id, err := coord.CreateItem(seller, "ipfs://meta/7")
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := reg.Approve(seller, escrow, id); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := coord.ListItem(seller, id, 10); err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}

	var body struct {
		Items []market.ItemInfo `json:"items"`
	}
	getJSON(t, server.URL+"/items", http.StatusOK, &body)

	if len(body.Items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(body.Items))
	}
	if body.Items[0].State != "sale" {
		t.Errorf("State = %q, want %q", body.Items[0].State, "sale")
	}
	if body.Items[0].Price != 10 {
		t.Errorf("Price = %d, want 10", body.Items[0].Price)
	}
}

func TestHandler_ItemByID(t *testing.T) {
	coord, _, _, server := newTestServer(t)

	owner := uuid.New()
	id, err := coord.CreateItem(owner, "ipfs://meta/0")
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}

	var info market.ItemInfo
	getJSON(t, server.URL+"/items/0", http.StatusOK, &info)

	if info.TokenID != id {
		t.Errorf("TokenID = %d, want %d", info.TokenID, id)
	}
	if info.Owner != owner {
		t.Errorf("Owner = %v, want %v", info.Owner, owner)
	}
	if info.URI != "ipfs://meta/0" {
		t.Errorf("URI = %q, want %q", info.URI, "ipfs://meta/0")
	}
	if info.State != "none" {
		t.Errorf("State = %q, want %q", info.State, "none")
	}
}

func TestHandler_ItemByID_Invalid(t *testing.T) {
	_, _, _, server := newTestServer(t)

	var body map[string]string
	getJSON(t, server.URL+"/items/abc", http.StatusBadRequest, &body)
	if body["error"] == "" {
		t.Error("missing error message for invalid id")
	}
}

func TestHandler_ItemByID_NotFound(t *testing.T) {
	_, _, _, server := newTestServer(t)

	var body map[string]string
	getJSON(t, server.URL+"/items/42", http.StatusNotFound, &body)
	if body["error"] == "" {
		t.Error("missing error message for unknown item")
	}
}

func TestHandler_Auctions(t *testing.T) {
	coord, reg, escrow, server := newTestServer(t)

	seller := uuid.New()
	id, err := coord.CreateItem(seller, "ipfs://meta")
	if err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if err := reg.Approve(seller, escrow, id); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if err := coord.ListItemOnAuction(seller, id, 2); err != nil {
		t.Fatalf("ListItemOnAuction failed: %v", err)
	}

	var body struct {
		Auctions []model.Auction `json:"auctions"`
	}
	getJSON(t, server.URL+"/auctions", http.StatusOK, &body)

	if len(body.Auctions) != 1 {
		t.Fatalf("len(auctions) = %d, want 1", len(body.Auctions))
	}
	if body.Auctions[0].TokenID != id {
		t.Errorf("TokenID = %d, want %d", body.Auctions[0].TokenID, id)
	}
	if body.Auctions[0].MinPrice != 2 {
		t.Errorf("MinPrice = %d, want 2", body.Auctions[0].MinPrice)
	}
}
