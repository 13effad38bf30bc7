package dto

import "motorepuestos/internal/model"

type FinalizeDayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type DayStatusResponse struct {
	Date         string `json:"date"`
	CanFinalize  bool   `json:"can_finalize"`
	AlreadyFinal bool   `json:"already_finalized"`
}

type DaySummaryResponse struct {
	Summary *model.DaySummary `json:"summary"`
}
