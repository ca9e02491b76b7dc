package repository

import (
	"context"
	"sync"

	"local-electrician/internal/domain/entity"
)

// MemoryDirectory is an in-process electrician and customer directory for
// tests and local development.
type MemoryDirectory struct {
	mu           sync.RWMutex
	electricians map[string]*entity.Electrician
	profiles     map[string]*entity.ElectricianProfile
	customers    map[string]*entity.CustomerProfile
}

// NewMemoryDirectory creates an empty in-memory directory
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		electricians: make(map[string]*entity.Electrician),
		profiles:     make(map[string]*entity.ElectricianProfile),
		customers:    make(map[string]*entity.CustomerProfile),
	}
}

// PutElectrician registers an electrician and its profile
func (d *MemoryDirectory) PutElectrician(e entity.Electrician, p entity.ElectricianProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.ID = e.ID
	p.Status = e.Status
	d.electricians[e.ID] = &e
	d.profiles[e.ID] = &p
}

// PutCustomer registers a customer profile
func (d *MemoryDirectory) PutCustomer(ref string, p entity.CustomerProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.Ref = ref
	d.customers[ref] = &p
}

// ListVerifiedWithLocation returns verified electricians that have coordinates
func (d *MemoryDirectory) ListVerifiedWithLocation(ctx context.Context) ([]*entity.Electrician, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*entity.Electrician
	for _, e := range d.electricians {
		if e.IsVerified() && e.HasLocation() {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// GetProfile returns an electrician profile, (nil, nil) for an unknown id
func (d *MemoryDirectory) GetProfile(ctx context.Context, electricianID string) (*entity.ElectricianProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[electricianID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

// Customers exposes the customer side of the directory.
func (d *MemoryDirectory) Customers() *MemoryCustomerDirectory {
	return &MemoryCustomerDirectory{dir: d}
}

// MemoryCustomerDirectory implements the CustomerDirectory interface over a
// MemoryDirectory.
type MemoryCustomerDirectory struct {
	dir *MemoryDirectory
}

// GetProfile returns a customer profile, (nil, nil) for an unknown ref
func (d *MemoryCustomerDirectory) GetProfile(ctx context.Context, customerRef string) (*entity.CustomerProfile, error) {
	d.dir.mu.RLock()
	defer d.dir.mu.RUnlock()
	p, ok := d.dir.customers[customerRef]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}
