package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"motorepuestos/internal/auth"
	"motorepuestos/internal/model"
	"motorepuestos/internal/offline"
	"motorepuestos/internal/repository"
)

type OpenShiftRequest struct {
	Date          string // YYYY-MM-DD
	Daypart       model.Daypart
	OpeningAmount decimal.Decimal
	Notes         string
}

type CloseShiftRequest struct {
	ShiftID      string
	Arqueo       ArqueoInput
	ClosingNotes string
}

type CloseShiftResult struct {
	Shift     *model.Shift
	CashCount *model.CashCount
	Commit    offline.CommitResult
}

type ShiftService interface {
	// OpenShift enforces the lifecycle preconditions and creates the
	// shift through the sync coordinator. Violations fail with
	// ErrPermission / ErrDuplicateShift / ErrOutOfSequence and perform
	// no write.
	OpenShift(ctx context.Context, actor auth.Capability, req OpenShiftRequest) (*model.Shift, offline.CommitResult, error)
	// CloseShift re-checks the shift is still active against the live
	// store, produces the cash count, and commits the transition.
	CloseShift(ctx context.Context, actor auth.Capability, req CloseShiftRequest) (*CloseShiftResult, error)
	FindShift(ctx context.Context, date string, daypart model.Daypart) (*model.Shift, error)
	ShiftsOfDay(ctx context.Context, date string) ([]model.Shift, error)
}

type shiftService struct {
	repo        repository.ShiftRepository
	coordinator *offline.Coordinator

	// openMu serializes open/close per (date, daypart). The store has
	// no conditional writes, so the duplicate / out-of-sequence checks
	// are read-then-write; without this lock two racing sessions could
	// both pass the precondition and both write.
	mu     sync.Mutex
	openMu map[string]*sync.Mutex
}

func NewShiftService(repo repository.ShiftRepository, coordinator *offline.Coordinator) ShiftService {
	return &shiftService{
		repo:        repo,
		coordinator: coordinator,
		openMu:      make(map[string]*sync.Mutex),
	}
}

func (s *shiftService) keyLock(date string, daypart model.Daypart) *sync.Mutex {
	key := date + "|" + string(daypart)
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.openMu[key]
	if !ok {
		m = &sync.Mutex{}
		s.openMu[key] = m
	}
	return m
}

// ── OpenShift ────────────────────────────────────────────────────────────────

func (s *shiftService) OpenShift(ctx context.Context, actor auth.Capability, req OpenShiftRequest) (*model.Shift, offline.CommitResult, error) {
	if !actor.Can(auth.PermShiftOpen) {
		return nil, offline.CommitResult{}, ErrPermission
	}
	if !req.Daypart.Valid() {
		return nil, offline.CommitResult{}, ErrInvalidDaypart
	}
	if req.OpeningAmount.IsNegative() {
		return nil, offline.CommitResult{}, fmt.Errorf("monto inicial inválido: %s", req.OpeningAmount)
	}

	lock := s.keyLock(req.Date, req.Daypart)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.FindByDateDaypart(ctx, req.Date, req.Daypart)
	if err != nil {
		return nil, offline.CommitResult{}, fmt.Errorf("verificando turno existente: %w", err)
	}
	if existing != nil {
		return nil, offline.CommitResult{}, fmt.Errorf("%w: %s %s", ErrDuplicateShift, req.Date, req.Daypart)
	}
	// While offline the first open lives only in the queue, not the
	// store; a second open for the same slot must still be rejected.
	if s.coordinator.HasPendingShiftOpen(req.Date, req.Daypart) {
		return nil, offline.CommitResult{}, fmt.Errorf("%w: %s %s (pendiente de sincronizar)", ErrDuplicateShift, req.Date, req.Daypart)
	}

	// Morning must be closed before the afternoon opens.
	if req.Daypart == model.DaypartAfternoon {
		morning, err := s.repo.FindByDateDaypart(ctx, req.Date, model.DaypartMorning)
		if err != nil {
			return nil, offline.CommitResult{}, fmt.Errorf("verificando turno mañana: %w", err)
		}
		if morning == nil || morning.Status != model.ShiftClosed {
			return nil, offline.CommitResult{}, fmt.Errorf("%w: fecha %s", ErrOutOfSequence, req.Date)
		}
	}

	shift := &model.Shift{
		Daypart: req.Daypart,
		Date:    req.Date,
		Employee: model.Employee{
			ID:   actor.EmployeeID,
			Name: actor.Name,
			Role: actor.Role,
		},
		OpeningAmount:     req.OpeningAmount,
		StartTime:         time.Now().UTC(),
		Status:            model.ShiftActive,
		Notes:             req.Notes,
		Totals:            model.NewShiftTotals(),
		ClientOperationID: uuid.NewString(),
	}

	result, err := s.coordinator.CommitShiftOpen(ctx, shift)
	if err != nil {
		if errors.Is(err, offline.ErrShiftConflict) {
			return nil, result, fmt.Errorf("%w: %s %s", ErrDuplicateShift, req.Date, req.Daypart)
		}
		return nil, result, err
	}
	shift.ID = result.ID

	log.Info().
		Str("date", req.Date).
		Str("daypart", string(req.Daypart)).
		Str("employee", actor.EmployeeID).
		Bool("pending", result.Pending).
		Msg("shift: opened")
	return shift, result, nil
}

// ── CloseShift ───────────────────────────────────────────────────────────────

func (s *shiftService) CloseShift(ctx context.Context, actor auth.Capability, req CloseShiftRequest) (*CloseShiftResult, error) {
	if !actor.Can(auth.PermShiftClose) {
		return nil, ErrPermission
	}

	// Re-check against the live store right before closing — another
	// session may have closed it already.
	shift, err := s.repo.FindByID(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShiftNotFound, req.ShiftID)
	}
	if shift.Status != model.ShiftActive {
		return nil, ErrShiftNotActive
	}

	lock := s.keyLock(shift.Date, shift.Daypart)
	lock.Lock()
	defer lock.Unlock()

	// The transition commits only with its arqueo: a shift never
	// reaches closed without a cash count id attached.
	req.Arqueo.CountedBy = actor.EmployeeID
	cc := ComputeArqueo(shift, req.Arqueo)
	cc.ID = uuid.NewString()

	now := time.Now().UTC()
	patch := map[string]any{
		"status":         model.ShiftClosed,
		"end_time":       now,
		"closing_amount": cc.FinalTotal,
		"closing_notes":  req.ClosingNotes,
		"closed_by":      actor.EmployeeID,
		"cash_count_id":  cc.ID,
	}

	result, err := s.coordinator.CommitShiftClose(ctx, req.ShiftID, patch, cc)
	if err != nil {
		return nil, err
	}

	shift.Status = model.ShiftClosed
	shift.EndTime = &now
	shift.ClosingAmount = &cc.FinalTotal
	shift.ClosingNotes = req.ClosingNotes
	shift.ClosedBy = actor.EmployeeID
	shift.CashCountID = cc.ID

	if cc.HasDifference {
		log.Warn().
			Str("shift_id", shift.ID).
			Str("difference", cc.FinalDifference.String()).
			Msg("shift: closed with cash difference")
	} else {
		log.Info().Str("shift_id", shift.ID).Msg("shift: closed")
	}

	return &CloseShiftResult{Shift: shift, CashCount: cc, Commit: result}, nil
}

func (s *shiftService) FindShift(ctx context.Context, date string, daypart model.Daypart) (*model.Shift, error) {
	return s.repo.FindByDateDaypart(ctx, date, daypart)
}

func (s *shiftService) ShiftsOfDay(ctx context.Context, date string) ([]model.Shift, error) {
	return s.repo.ListByDate(ctx, date)
}
