package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/server/http/dto"
	testhelpers "github.com/polkiloo/smmpanel/internal/test"
	"github.com/polkiloo/smmpanel/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, pattern, path string, handler gin.HandlerFunc, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domainErrors.ErrInvalidTarget, http.StatusBadRequest},
		{domainErrors.ErrInvalidQuantity, http.StatusBadRequest},
		{domainErrors.ErrNotFound, http.StatusNotFound},
		{domainErrors.ErrServiceNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domainErrors.ErrQuantityOutOfRange), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, got)
		}
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	target := testhelpers.RandomTargetURL()
	facade := testhelpers.PanelFacadeStub{CreateFn: func(_ context.Context, serviceID int64, gotTarget string, quantity int) (*model.Order, error) {
		if serviceID != 3 || gotTarget != target || quantity != 150 {
			t.Fatalf("unexpected arguments: %d %q %d", serviceID, gotTarget, quantity)
		}
		return &model.Order{ID: 17}, nil
	}}
	body, _ := json.Marshal(dto.CreateOrderRequest{ServiceID: 3, TargetURL: target, Quantity: 150})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(facade).Create, body, jsonHeaders)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	var decoded dto.CreateOrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if decoded.OrderID != 17 || decoded.Message == "" {
		t.Fatalf("unexpected response %+v", decoded)
	}
}

func TestOrderHandlerCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		facade testhelpers.PanelFacadeStub
		body   []byte
		status int
	}{
		{name: "bad json", body: []byte("not json"), status: http.StatusBadRequest},
		{name: "empty target", body: []byte(`{"service_id":1,"target_url":"","quantity":10}`), facade: testhelpers.PanelFacadeStub{CreateFn: func(context.Context, int64, string, int) (*model.Order, error) {
			return nil, domainErrors.ErrInvalidTarget
		}}, status: http.StatusBadRequest},
		{name: "zero quantity", body: []byte(`{"service_id":1,"target_url":"http://x","quantity":0}`), facade: testhelpers.PanelFacadeStub{CreateFn: func(context.Context, int64, string, int) (*model.Order, error) {
			return nil, domainErrors.ErrInvalidQuantity
		}}, status: http.StatusBadRequest},
		{name: "unknown service", body: []byte(`{"service_id":99,"target_url":"http://x","quantity":10}`), facade: testhelpers.PanelFacadeStub{CreateFn: func(context.Context, int64, string, int) (*model.Order, error) {
			return nil, domainErrors.ErrServiceNotFound
		}}, status: http.StatusNotFound},
		{name: "out of range", body: []byte(`{"service_id":1,"target_url":"http://x","quantity":1}`), facade: testhelpers.PanelFacadeStub{CreateFn: func(context.Context, int64, string, int) (*model.Order, error) {
			return nil, domainErrors.ErrQuantityOutOfRange
		}}, status: http.StatusUnprocessableEntity},
		{name: "internal", body: []byte(`{"service_id":1,"target_url":"http://x","quantity":10}`), facade: testhelpers.PanelFacadeStub{CreateFn: func(context.Context, int64, string, int) (*model.Order, error) {
			return nil, errors.New("boom")
		}}, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/orders", "/orders", NewOrderHandler(tt.facade).Create, tt.body, jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.Code)
			}
			var decoded dto.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil || decoded.Error == "" {
				t.Fatalf("expected error body, got %q", resp.Body.String())
			}
		})
	}
}

func TestOrderHandlerGet(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	facade := testhelpers.PanelFacadeStub{OrderFn: func(_ context.Context, id int64) (*model.Order, error) {
		return &model.Order{
			ID:          id,
			ServiceType: "TikTok Views",
			Platform:    "TikTok",
			TargetURL:   "http://x",
			Quantity:    500,
			Status:      model.OrderStatusProcessing,
			Progress:    35,
			CreatedAt:   created,
		}, nil
	}}

	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/5", NewOrderHandler(facade).Get, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"id", "service_type", "platform", "target_url", "quantity", "status", "progress", "created_at"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected key %q in %v", key, decoded)
		}
	}
	if decoded["status"] != "processing" || decoded["progress"] != float64(35) || decoded["id"] != float64(5) {
		t.Fatalf("unexpected order body %v", decoded)
	}
}

func TestOrderHandlerGetFailures(t *testing.T) {
	notFound := testhelpers.PanelFacadeStub{OrderFn: func(context.Context, int64) (*model.Order, error) {
		return nil, domainErrors.ErrNotFound
	}}

	resp := performRequest(t, http.MethodGet, "/orders/:id", "/orders/999999", NewOrderHandler(notFound).Get, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders/:id", "/orders/abc", NewOrderHandler(notFound).Get, nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestOrderHandlerList(t *testing.T) {
	orders := []model.Order{{ID: 2}, {ID: 1}}
	facade := testhelpers.PanelFacadeStub{OrdersFn: func(context.Context) ([]model.Order, error) {
		return orders, nil
	}}
	resp := performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(facade).List, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded []dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != 2 {
		t.Fatalf("unexpected orders %+v", decoded)
	}

	empty := testhelpers.PanelFacadeStub{OrdersFn: func(context.Context) ([]model.Order, error) { return nil, nil }}
	resp = performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(empty).List, nil, nil)
	if resp.Code != http.StatusOK || resp.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %d %q", resp.Code, resp.Body.String())
	}

	failing := testhelpers.PanelFacadeStub{OrdersFn: func(context.Context) ([]model.Order, error) { return nil, errors.New("boom") }}
	resp = performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(failing).List, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestServiceHandlerList(t *testing.T) {
	facade := testhelpers.PanelFacadeStub{}
	resp := performRequest(t, http.MethodGet, "/services", "/services", NewServiceHandler(facade, facade).List, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var decoded []dto.ServiceResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(decoded) != 8 || decoded[0].ID != 1 || decoded[0].MinQuantity == 0 {
		t.Fatalf("unexpected services %+v", decoded)
	}

	failing := testhelpers.PanelFacadeStub{ServicesFn: func(context.Context) ([]model.Service, error) { return nil, errors.New("boom") }}
	resp = performRequest(t, http.MethodGet, "/services", "/services", NewServiceHandler(failing, failing).List, nil, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}

func TestServiceHandlerHealth(t *testing.T) {
	healthy := testhelpers.PanelFacadeStub{}
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewServiceHandler(healthy, healthy).Health, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	down := testhelpers.PanelFacadeStub{HealthErr: errors.New("db down")}
	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewServiceHandler(down, down).Health, nil, nil)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}

type orderUseCaseFacade struct {
	orders *usecase.OrderUseCase
}

func (f orderUseCaseFacade) CreateOrder(ctx context.Context, serviceID int64, target string, quantity int) (*model.Order, error) {
	return f.orders.Create(ctx, serviceID, target, quantity)
}

func (f orderUseCaseFacade) Order(ctx context.Context, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f orderUseCaseFacade) Orders(ctx context.Context) ([]model.Order, error) {
	return f.orders.List(ctx)
}

func TestOrderHandlerCreateWithOrderUseCase(t *testing.T) {
	facade := orderUseCaseFacade{orders: usecase.NewOrderUseCase(testhelpers.NewOrderRepositoryStub(), testhelpers.NewServiceRepositoryStub())}
	handler := NewOrderHandler(facade).Create

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "known service", body: `{"service_id":1,"target_url":"http://x","quantity":100}`, status: http.StatusCreated},
		{name: "zero service", body: `{"service_id":0,"target_url":"http://x","quantity":100}`, status: http.StatusNotFound},
		{name: "negative service", body: `{"service_id":-3,"target_url":"http://x","quantity":100}`, status: http.StatusNotFound},
		{name: "missing service", body: `{"target_url":"http://x","quantity":100}`, status: http.StatusNotFound},
		{name: "unknown service", body: `{"service_id":999,"target_url":"http://x","quantity":100}`, status: http.StatusNotFound},
		{name: "blank target", body: `{"service_id":1,"target_url":"  ","quantity":100}`, status: http.StatusBadRequest},
		{name: "negative quantity", body: `{"service_id":1,"target_url":"http://x","quantity":-1}`, status: http.StatusBadRequest},
		{name: "quantity above range", body: `{"service_id":1,"target_url":"http://x","quantity":1000000}`, status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler, []byte(tt.body), jsonHeaders)
			if resp.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, resp.Code, resp.Body.String())
			}
		})
	}
}
