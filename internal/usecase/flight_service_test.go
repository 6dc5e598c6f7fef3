package usecase

import (
	"context"
	"errors"
	"testing"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"
	repoimpl "flights-api/internal/interface/repository"
	"flights-api/pkg/logger"
)

func newTestService() (*FlightService, *repoimpl.MemoryFlightRepository) {
	repo := repoimpl.NewMemoryFlightRepository()
	return NewFlightService(repo, logger.NewNopLogger()), repo
}

func samplePassengers(t *testing.T) []PassengerInput {
	t.Helper()
	return decodeCreate(t, `{"flightCode":"X","passengers":[`+validPassenger+`]}`).Passengers
}

// blindRepo hides existing flights from FindByCode, simulating a concurrent
// writer that slips in between the pre-check and the write.
type blindRepo struct {
	repository.FlightRepository
}

func (r blindRepo) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	return nil, nil
}

// faultyRepo fails every call
type faultyRepo struct{}

var errStoreDown = errors.New("server selection timeout")

func (faultyRepo) List(ctx context.Context) ([]*entity.Flight, error) { return nil, errStoreDown }
func (faultyRepo) FindByCode(ctx context.Context, code string) (*entity.Flight, error) {
	return nil, errStoreDown
}
func (faultyRepo) Insert(ctx context.Context, flight *entity.Flight) error { return errStoreDown }
func (faultyRepo) UpdateByCode(ctx context.Context, code string, update entity.FlightUpdate) (*entity.Flight, error) {
	return nil, errStoreDown
}
func (faultyRepo) DeleteByCode(ctx context.Context, code string) (*entity.Flight, error) {
	return nil, errStoreDown
}
func (faultyRepo) Ping(ctx context.Context) error { return errStoreDown }

func TestCreateFlightWithEmptyPassengers(t *testing.T) {
	svc, _ := newTestService()

	flight, err := svc.CreateFlight(context.Background(), CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}})
	if err != nil {
		t.Fatalf("CreateFlight: %v", err)
	}
	if flight.FlightCode != "AA100" || flight.Passengers == nil || len(flight.Passengers) != 0 {
		t.Fatalf("unexpected flight %+v", flight)
	}
	if flight.ID == "" || flight.CreatedAt.IsZero() {
		t.Fatalf("store defaults missing: %+v", flight)
	}
}

func TestCreateFlightTrimsCode(t *testing.T) {
	svc, _ := newTestService()

	flight, err := svc.CreateFlight(context.Background(), CreateFlightRequest{FlightCode: "  AA100 ", Passengers: []PassengerInput{}})
	if err != nil {
		t.Fatalf("CreateFlight: %v", err)
	}
	if flight.FlightCode != "AA100" {
		t.Fatalf("expected trimmed code, got %q", flight.FlightCode)
	}

	_, err = svc.CreateFlight(context.Background(), CreateFlightRequest{FlightCode: "   ", Passengers: []PassengerInput{}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("blank code should fail validation, got %v", err)
	}
}

func TestCreateFlightTwiceIsConflict(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	req := CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)}

	if _, err := svc.CreateFlight(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateFlight(ctx, req)
	if !errors.Is(err, repository.ErrDuplicateFlightCode) {
		t.Fatalf("expected conflict, got %v", err)
	}

	flights, _ := repo.List(ctx)
	if len(flights) != 1 {
		t.Fatalf("expected 1 stored flight, got %d", len(flights))
	}
}

func TestCreateFlightStoreConstraintIsConflict(t *testing.T) {
	repo := repoimpl.NewMemoryFlightRepository()
	svc := NewFlightService(blindRepo{repo}, logger.NewNopLogger())
	ctx := context.Background()
	req := CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}}

	if _, err := svc.CreateFlight(ctx, req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateFlight(ctx, req)
	if !errors.Is(err, repository.ErrDuplicateFlightCode) {
		t.Fatalf("constraint violation should map to conflict, got %v", err)
	}
}

func TestCreateFlightMissingCodePersistsNothing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateFlight(ctx, CreateFlightRequest{Passengers: samplePassengers(t)})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Message != msgCreateRequired {
		t.Fatalf("expected validation failure, got %v", err)
	}

	flights, _ := repo.List(ctx)
	if len(flights) != 0 {
		t.Fatalf("nothing should be stored, got %d flights", len(flights))
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)})
	if err != nil {
		t.Fatalf("CreateFlight: %v", err)
	}

	got, err := svc.GetFlight(ctx, "AA100")
	if err != nil {
		t.Fatalf("GetFlight: %v", err)
	}
	if got.FlightCode != created.FlightCode || len(got.Passengers) != 1 || got.Passengers[0] != created.Passengers[0] {
		t.Fatalf("round trip mismatch: created %+v, got %+v", created, got)
	}
}

func TestGetFlightNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetFlight(context.Background(), "ZZ999")
	if !errors.Is(err, repository.ErrFlightNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateFlightPassengersOnlyKeepsCode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}}); err != nil {
		t.Fatalf("CreateFlight: %v", err)
	}

	updated, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{Passengers: samplePassengers(t)})
	if err != nil {
		t.Fatalf("UpdateFlight: %v", err)
	}
	if updated.FlightCode != "AA100" || len(updated.Passengers) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}
}

func TestUpdateFlightEmptyPayloadLeavesRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created, err := svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)})
	if err != nil {
		t.Fatalf("CreateFlight: %v", err)
	}

	updated, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{})
	if err != nil {
		t.Fatalf("UpdateFlight: %v", err)
	}
	if updated.ID != created.ID || updated.FlightCode != created.FlightCode || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("record changed: %+v vs %+v", updated, created)
	}
	if len(updated.Passengers) != 1 || updated.Passengers[0] != created.Passengers[0] {
		t.Fatalf("passengers changed: %+v", updated.Passengers)
	}
}

func TestUpdateFlightToExistingCodeIsConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)})
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA200", Passengers: []PassengerInput{}})

	newCode := "AA200"
	_, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{FlightCode: &newCode})
	if !errors.Is(err, repository.ErrDuplicateFlightCode) {
		t.Fatalf("expected conflict, got %v", err)
	}

	unchanged, err := svc.GetFlight(ctx, "AA100")
	if err != nil || len(unchanged.Passengers) != 1 {
		t.Fatalf("AA100 should be unchanged, got %+v, %v", unchanged, err)
	}
}

func TestUpdateFlightStoreConstraintIsConflict(t *testing.T) {
	repo := repoimpl.NewMemoryFlightRepository()
	ctx := context.Background()
	_ = repo.Insert(ctx, &entity.Flight{FlightCode: "AA100"})
	_ = repo.Insert(ctx, &entity.Flight{FlightCode: "AA200"})

	svc := NewFlightService(renameBlindRepo{repo}, logger.NewNopLogger())
	newCode := "AA200"
	_, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{FlightCode: &newCode})
	if !errors.Is(err, repository.ErrDuplicateFlightCode) {
		t.Fatalf("expected conflict from store constraint, got %v", err)
	}
}

// renameBlindRepo only sees AA100, so the rename pre-check passes and the store must catch the clash
type renameBlindRepo struct {
	repository.FlightRepository
}

func (r renameBlindRepo) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	if flightCode != "AA100" {
		return nil, nil
	}
	return r.FlightRepository.FindByCode(ctx, flightCode)
}

func TestUpdateFlightSameCodeIsNotConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}})

	same := " AA100 "
	updated, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{FlightCode: &same})
	if err != nil {
		t.Fatalf("UpdateFlight: %v", err)
	}
	if updated.FlightCode != "AA100" {
		t.Fatalf("unexpected code %q", updated.FlightCode)
	}
}

func TestUpdateFlightRenames(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)})

	newCode := "AA300"
	updated, err := svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{FlightCode: &newCode})
	if err != nil {
		t.Fatalf("UpdateFlight: %v", err)
	}
	if updated.FlightCode != "AA300" || len(updated.Passengers) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := svc.GetFlight(ctx, "AA100"); !errors.Is(err, repository.ErrFlightNotFound) {
		t.Fatalf("old code should be gone, got %v", err)
	}
}

func TestUpdateFlightNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateFlight(context.Background(), "ZZ999", UpdateFlightRequest{})
	if !errors.Is(err, repository.ErrFlightNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateFlightInvalidPassengers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}})

	_, err := svc.UpdateFlight(ctx, "AA100", decodeUpdate(t, `{"passengers":[{"id":1,"name":"Ana"}]}`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestDeleteFlightIsFinal(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: samplePassengers(t)})

	deleted, err := svc.DeleteFlight(ctx, "AA100")
	if err != nil {
		t.Fatalf("DeleteFlight: %v", err)
	}
	if deleted.FlightCode != "AA100" || len(deleted.Passengers) != 1 {
		t.Fatalf("unexpected deleted flight %+v", deleted)
	}

	if _, err := svc.GetFlight(ctx, "AA100"); !errors.Is(err, repository.ErrFlightNotFound) {
		t.Fatalf("get after delete should be not found, got %v", err)
	}
	if _, err := svc.DeleteFlight(ctx, "AA100"); !errors.Is(err, repository.ErrFlightNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestStoreFaultsAreWrapped(t *testing.T) {
	svc := NewFlightService(faultyRepo{}, logger.NewNopLogger())
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["list"] = svc.ListFlights(ctx)
	_, checks["get"] = svc.GetFlight(ctx, "AA100")
	_, checks["create"] = svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: "AA100", Passengers: []PassengerInput{}})
	_, checks["update"] = svc.UpdateFlight(ctx, "AA100", UpdateFlightRequest{})
	_, checks["delete"] = svc.DeleteFlight(ctx, "AA100")

	for op, err := range checks {
		if !errors.Is(err, errStoreDown) {
			t.Errorf("%s: expected wrapped store error, got %v", op, err)
		}
		if errors.Is(err, repository.ErrFlightNotFound) || errors.Is(err, repository.ErrDuplicateFlightCode) {
			t.Errorf("%s: store fault mapped to an expected outcome", op)
		}
	}
}

func TestListFlightsNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, code := range []string{"AA100", "AA200", "AA300"} {
		if _, err := svc.CreateFlight(ctx, CreateFlightRequest{FlightCode: code, Passengers: []PassengerInput{}}); err != nil {
			t.Fatalf("CreateFlight %s: %v", code, err)
		}
	}

	flights, err := svc.ListFlights(ctx)
	if err != nil {
		t.Fatalf("ListFlights: %v", err)
	}
	if len(flights) != 3 || flights[0].FlightCode != "AA300" || flights[2].FlightCode != "AA100" {
		t.Fatalf("unexpected order: %s, %s, %s", flights[0].FlightCode, flights[1].FlightCode, flights[2].FlightCode)
	}
}
