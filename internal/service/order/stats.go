package order

import "github.com/obratech/pedidos/internal/entity"

// Stats aggregates dashboard counters over a snapshot of orders. Always
// recomputed from the latest fetch, never cached incrementally.
type Stats struct {
	Total      int
	Pending    int
	InProgress int
	Delivered  int
	MyOrders   int
}

// ComputeStats counts orders per dashboard bucket. Pure; the three buckets
// plus Pending partition the five statuses, so they always sum to Total.
func ComputeStats(orders []entity.Order) Stats {
	var st Stats
	st.Total = len(orders)
	for i := range orders {
		switch orders[i].Status {
		case entity.StatusPending:
			st.Pending++
		case entity.StatusDelivered:
			st.Delivered++
		default:
			st.InProgress++
		}
	}
	return st
}

// ComputeManagerStats extends ComputeStats with the count of open orders
// the given manager is responsible for.
func ComputeManagerStats(orders []entity.Order, managerID string) Stats {
	st := ComputeStats(orders)
	for i := range orders {
		o := &orders[i]
		if o.ResponsibleID != nil && *o.ResponsibleID == managerID && o.Status != entity.StatusDelivered {
			st.MyOrders++
		}
	}
	return st
}
