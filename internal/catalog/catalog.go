// Package catalog is the boundary to the service-catalog collaborator. The
// reservation engine only needs pricing; it does not validate services
// beyond a presence check.
package catalog

import "arcana/internal/config"

// Service is a bookable service with its pricing.
type Service struct {
	ID         string
	Name       string
	BasePrice  int64 // cents
	AddOnPrice int64 // cents, 0 = no add-on offered
}

// Price returns the total price for a reservation of this service.
func (s Service) Price(addOn bool) int64 {
	total := s.BasePrice
	if addOn {
		total += s.AddOnPrice
	}
	return total
}

// PriceLookup resolves a service identifier to its pricing.
type PriceLookup interface {
	Lookup(serviceID string) (Service, bool)
}

// Static is a config-backed catalog.
type Static struct {
	services map[string]Service
}

// NewStatic builds a catalog from configured entries.
func NewStatic(entries []config.ServiceEntry) *Static {
	services := make(map[string]Service, len(entries))
	for _, e := range entries {
		services[e.ID] = Service{
			ID:         e.ID,
			Name:       e.Name,
			BasePrice:  e.BasePrice,
			AddOnPrice: e.AddOnPrice,
		}
	}
	return &Static{services: services}
}

// Lookup returns the service and whether it exists.
func (s *Static) Lookup(serviceID string) (Service, bool) {
	svc, ok := s.services[serviceID]
	return svc, ok
}
