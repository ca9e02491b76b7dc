package usecase

import (
	"time"

	"local-electrician/internal/domain/entity"
	storeRepo "local-electrician/internal/interface/repository"
	"local-electrician/pkg/logger"
)

const (
	testRadiusKm            = 15
	retentionWindowForTests = time.Hour
)

// engine bundles a fully wired in-memory engine for tests.
type engine struct {
	primary    *storeRepo.MemoryRequestRepository
	ledger     *storeRepo.MemoryLedgerRepository
	store      *storeRepo.DualStore
	directory  *storeRepo.MemoryDirectory
	dispatcher *Dispatcher
	arbiter    *Arbiter
	polling    *PollingGateway
	reviews    *Reviews
}

func newEngine() *engine {
	log := logger.NewNop()
	primary := storeRepo.NewMemoryRequestRepository()
	ledger := storeRepo.NewMemoryLedgerRepository()
	store := storeRepo.NewDualStore(primary, ledger, log, nil)
	directory := storeRepo.NewMemoryDirectory()
	geoIndex := NewGeoIndex(directory, log)

	return &engine{
		primary:    primary,
		ledger:     ledger,
		store:      store,
		directory:  directory,
		dispatcher: NewDispatcher(store, directory, directory.Customers(), geoIndex, testRadiusKm, log, nil),
		arbiter:    NewArbiter(store, directory, log, nil),
		polling:    NewPollingGateway(store, directory, retentionWindowForTests, log),
		reviews:    NewReviews(store, log),
	}
}

func (e *engine) addElectrician(id string, lat, lng float64, status string) {
	e.directory.PutElectrician(
		entity.Electrician{ID: id, Status: status, Latitude: &lat, Longitude: &lng, City: "Delhi"},
		entity.ElectricianProfile{Name: "Electrician " + id, Phone: "99" + id, City: "Delhi"},
	)
}

func baseInput(customerRef string) CreateRequestInput {
	return CreateRequestInput{
		CustomerRef:   customerRef,
		ServiceType:   "Electrical Repair",
		Urgency:       "HIGH",
		PreferredDate: "2025-04-02",
		PreferredSlot: "morning",
		IssueDetail:   "power socket sparking",
		CustomerName:  "Asha",
		CustomerPhone: "9800000001",
		Address:       "14 MG Road",
		City:          "Delhi",
		Pincode:       "110001",
	}
}
