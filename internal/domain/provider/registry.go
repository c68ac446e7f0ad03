package provider

import (
	"sort"

	"github.com/wekeepgrowing/adcampaign-billing/internal/domain/model"
)

// Registry maps each payment method to its gateway
type Registry struct {
	gateways map[model.PaymentMethod]Gateway
}

// NewRegistry registers gateways by their Method. Later entries replace
// earlier ones for the same method.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[model.PaymentMethod]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Method()] = g
	}
	return r
}

func (r *Registry) Get(method model.PaymentMethod) (Gateway, bool) {
	g, ok := r.gateways[method]
	return g, ok
}

// Methods returns the registered methods in name order.
func (r *Registry) Methods() []model.PaymentMethod {
	methods := make([]model.PaymentMethod, 0, len(r.gateways))
	for m := range r.gateways {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}
