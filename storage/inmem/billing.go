package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/darasa/darasa/core/billing"
)

type BillingRepo struct {
	mu       sync.RWMutex
	requests map[string]billing.CustomPlanRequest
	orders   map[string]billing.PaymentOrder
}

var _ billing.Repository = (*BillingRepo)(nil)

func NewBillingRepo() *BillingRepo {
	return &BillingRepo{
		requests: make(map[string]billing.CustomPlanRequest),
		orders:   make(map[string]billing.PaymentOrder),
	}
}

func (r *BillingRepo) CreatePlanRequest(ctx context.Context, req billing.CustomPlanRequest) (billing.CustomPlanRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		req.ID = newID()
	}
	r.requests[req.ID] = req
	return req, nil
}

func (r *BillingRepo) QueryPlanRequests(ctx context.Context, schoolID string) ([]billing.CustomPlanRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var reqs []billing.CustomPlanRequest
	for _, req := range r.requests {
		if schoolID == "" || req.SchoolID == schoolID {
			reqs = append(reqs, req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs, nil
}

func (r *BillingRepo) CreateOrder(ctx context.Context, ord billing.PaymentOrder) (billing.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ord.ID == "" {
		ord.ID = newID()
	}
	r.orders[ord.ID] = ord
	return ord, nil
}

func (r *BillingRepo) GetOrderByID(ctx context.Context, schoolID, id string) (billing.PaymentOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ord, ok := r.orders[id]
	if !ok || ord.SchoolID != schoolID {
		return billing.PaymentOrder{}, billing.ErrOrderNotFound
	}
	return ord, nil
}

func (r *BillingRepo) UpdateOrder(ctx context.Context, ord billing.PaymentOrder) (billing.PaymentOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[ord.ID]; !ok {
		return billing.PaymentOrder{}, billing.ErrOrderNotFound
	}
	r.orders[ord.ID] = ord
	return ord, nil
}

func (r *BillingRepo) QueryOrders(ctx context.Context, schoolID string) ([]billing.PaymentOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []billing.PaymentOrder
	for _, ord := range r.orders {
		if ord.SchoolID == schoolID {
			orders = append(orders, ord)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}
