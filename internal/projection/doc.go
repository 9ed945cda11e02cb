// Package projection builds the Orders read model from immutable event
// history.
//
// Read models are intentionally separate from command aggregates so query
// layers can read ergonomic rows without replaying an order's events per
// request. Projection is the persistence seam: the write side emits events,
// projection code transforms them into the orders and order_lines tables.
package projection
