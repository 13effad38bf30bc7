package service

import "errors"

// Validation and permission failures are rejected synchronously with
// no write attempted. Callers match with errors.Is.
var (
	// ErrDuplicateShift: a shift already exists for (date, daypart).
	ErrDuplicateShift = errors.New("ya existe un turno para esta fecha y franja")
	// ErrOutOfSequence: afternoon requested before the morning shift
	// of the same date is closed.
	ErrOutOfSequence = errors.New("el turno mañana debe estar cerrado antes de abrir el turno tarde")
	// ErrPermission: the caller's capability lacks the required permission.
	ErrPermission = errors.New("permisos insuficientes")
	// ErrShiftNotFound: the referenced shift does not exist.
	ErrShiftNotFound = errors.New("turno no encontrado")
	// ErrShiftNotActive: the shift was already closed, possibly by a
	// concurrent session.
	ErrShiftNotActive = errors.New("el turno no está activo")
	// ErrDayNotFinalizable: finalization preconditions not met.
	ErrDayNotFinalizable = errors.New("el día no puede finalizarse: ambos turnos deben existir y estar cerrados")
	// ErrDayAlreadyFinalized: finalization is monotonic.
	ErrDayAlreadyFinalized = errors.New("el día ya fue finalizado")
	// ErrInvalidDaypart: unknown daypart value.
	ErrInvalidDaypart = errors.New("franja horaria inválida")
	// ErrInvalidPayment: unknown payment method.
	ErrInvalidPayment = errors.New("método de pago inválido")
	// ErrInsufficientStock: requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrNoActiveShift: the operation needs an active shift.
	ErrNoActiveShift = errors.New("no hay un turno activo")
)
