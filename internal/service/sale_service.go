package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"motorepuestos/internal/auth"
	"motorepuestos/internal/model"
	"motorepuestos/internal/offline"
	"motorepuestos/internal/repository"
)

// ErrInsufficientPayment: cash tendered does not cover the total.
var ErrInsufficientPayment = errors.New("el monto entregado es insuficiente")

type SaleItemRequest struct {
	ProductID string
	Quantity  int
}

type RegisterSaleRequest struct {
	ShiftID           string
	Items             []SaleItemRequest
	Discount          decimal.Decimal
	PaymentMethod     string
	AmountTendered    decimal.Decimal
	ClientOperationID string // optional, caller-supplied idempotency key
}

type RegisterSaleResult struct {
	Sale   *model.Sale
	Change decimal.Decimal
	Commit offline.CommitResult
}

type SaleService interface {
	// RegisterSale validates the cart, prices it from the catalog and
	// hands the fully-formed sale to the sync coordinator. A Pending
	// commit is success with deferred confirmation.
	RegisterSale(ctx context.Context, actor auth.Capability, req RegisterSaleRequest) (*RegisterSaleResult, error)
	SalesOfDay(ctx context.Context, date string) ([]model.Sale, error)
}

type saleService struct {
	products    repository.ProductRepository
	shifts      repository.ShiftRepository
	sales       repository.SaleRepository
	coordinator *offline.Coordinator
}

func NewSaleService(
	products repository.ProductRepository,
	shifts repository.ShiftRepository,
	sales repository.SaleRepository,
	coordinator *offline.Coordinator,
) SaleService {
	return &saleService{products: products, shifts: shifts, sales: sales, coordinator: coordinator}
}

func (s *saleService) RegisterSale(ctx context.Context, actor auth.Capability, req RegisterSaleRequest) (*RegisterSaleResult, error) {
	if !actor.Can(auth.PermSaleCreate) {
		return nil, ErrPermission
	}
	if !model.ValidMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayment, req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, errors.New("la venta no tiene items")
	}

	shift, err := s.shifts.FindByID(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotFound, req.ShiftID)
	}
	if shift.Status != model.ShiftActive {
		return nil, ErrNoActiveShift
	}

	// Price the cart from the catalog — client-sent prices are never
	// trusted.
	subtotal := decimal.Zero
	items := make([]model.SaleItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("cantidad inválida para producto %s", it.ProductID)
		}
		p, err := s.products.FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", it.ProductID)
		}
		if p.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: %s (disponible %d, solicitado %d)",
				ErrInsufficientStock, p.Name, p.Stock, it.Quantity)
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, model.SaleItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  lineTotal,
		})
	}

	total := subtotal.Sub(req.Discount)
	if total.IsNegative() {
		return nil, errors.New("el descuento supera el subtotal")
	}

	change := decimal.Zero
	if req.PaymentMethod == model.MethodCash && !req.AmountTendered.IsZero() {
		if req.AmountTendered.LessThan(total) {
			return nil, ErrInsufficientPayment
		}
		change = req.AmountTendered.Sub(total)
	}

	now := time.Now().UTC()
	sale := &model.Sale{
		ShiftID:           req.ShiftID,
		Date:              shift.Date,
		Items:             items,
		Subtotal:          subtotal,
		Discount:          req.Discount,
		Total:             total,
		PaymentMethod:     req.PaymentMethod,
		Timestamp:         now,
		ProcessedBy:       actor.EmployeeID,
		ClientOperationID: req.ClientOperationID,
	}

	commit, err := s.coordinator.CommitSale(ctx, sale)
	if err != nil {
		return nil, err
	}
	sale.ID = commit.ID

	return &RegisterSaleResult{Sale: sale, Change: change, Commit: commit}, nil
}

func (s *saleService) SalesOfDay(ctx context.Context, date string) ([]model.Sale, error) {
	return s.sales.ListByDate(ctx, date)
}
