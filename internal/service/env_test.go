package service

import (
	"testing"
	"time"

	"motorepuestos/internal/auth"
	"motorepuestos/internal/events"
	"motorepuestos/internal/offline"
	"motorepuestos/internal/repository"
	"motorepuestos/internal/store"
)

// env wires the services over the in-memory store so tests can flip
// connectivity and inspect what actually landed.
type env struct {
	mem     *store.MemoryStore
	hub     *events.Hub
	monitor *offline.Monitor
	queue   *offline.Queue
	coord   *offline.Coordinator

	shifts     repository.ShiftRepository
	sales      repository.SaleRepository
	products   repository.ProductRepository
	expenses   repository.ExpenseRepository
	cashCounts repository.CashCountRepository
	closures   repository.DayClosureRepository

	shiftSvc   ShiftService
	saleSvc    SaleService
	expenseSvc ExpenseService
	daySvc     DayService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mem := store.NewMemoryStore()
	hub := events.NewHub(10 * time.Millisecond)
	t.Cleanup(hub.Cleanup)

	e := &env{
		mem:        mem,
		hub:        hub,
		monitor:    offline.NewMonitor(mem, time.Hour),
		queue:      offline.NewQueue(store.NewMemoryKV(), 10, hub, nil),
		shifts:     repository.NewShiftRepository(mem),
		sales:      repository.NewSaleRepository(mem),
		products:   repository.NewProductRepository(mem),
		expenses:   repository.NewExpenseRepository(mem),
		cashCounts: repository.NewCashCountRepository(mem),
		closures:   repository.NewDayClosureRepository(mem),
	}
	e.coord = offline.NewCoordinator(offline.CoordinatorDeps{
		Store:      mem,
		Queue:      e.queue,
		Monitor:    e.monitor,
		Hub:        hub,
		Sales:      e.sales,
		Shifts:     e.shifts,
		Products:   e.products,
		CashCounts: e.cashCounts,
	})
	e.shiftSvc = NewShiftService(e.shifts, e.coord)
	e.saleSvc = NewSaleService(e.products, e.shifts, e.sales, e.coord)
	e.expenseSvc = NewExpenseService(e.expenses, e.shifts, nil)
	e.daySvc = NewDayService(e.shifts, e.sales, e.expenses, e.closures)
	return e
}

// goOffline marks connectivity lost. Reads keep working — they are
// served from the local cache — while every write routes through the
// queue. Tests drive the drain pass with coord.Sync directly instead
// of flipping the monitor back, keeping replay timing deterministic.
func (e *env) goOffline() {
	e.monitor.SetOnline(false)
}

var (
	admin = auth.Capability{EmployeeID: "emp-admin", Name: "Ana", Role: "admin"}

	cashier = auth.Capability{
		EmployeeID: "emp-caja",
		Name:       "Beto",
		Role:       "cajero",
		Permissions: []string{
			auth.PermShiftOpen,
			auth.PermShiftClose,
			auth.PermSaleCreate,
			auth.PermExpense,
		},
	}

	viewer = auth.Capability{EmployeeID: "emp-view", Name: "Caro", Role: "consulta"}
)
