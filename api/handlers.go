package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

func (a *API) health(c echo.Context) error {
	if err := a.eng.Store().Ping(c.Request().Context()); err != nil {
		a.logger.Warn("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unavailable",
			"time":   time.Now().UTC(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (a *API) entitlement(c echo.Context) error {
	p := principalOf(c)
	res, err := a.eng.Resolve(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// ──────────────────────────────────────────────────
// Business profiles
// ──────────────────────────────────────────────────

func (a *API) createTenant(c echo.Context) error {
	var in tenant.Input
	if err := c.Bind(&in); err != nil {
		return badRequest("body", "must be a JSON business profile", err)
	}

	p := principalOf(c)
	t, err := a.eng.CreateTenant(c.Request().Context(), p, p.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (a *API) listTenants(c echo.Context) error {
	p := principalOf(c)
	list, err := a.eng.ListTenants(c.Request().Context(), p, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"tenants": list})
}

func (a *API) defaultTenant(c echo.Context) error {
	p := principalOf(c)
	t, err := a.eng.DefaultTenant(c.Request().Context(), p, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (a *API) getTenant(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	t, err := a.eng.GetTenant(c.Request().Context(), principalOf(c), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (a *API) updateTenant(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	var patch tenant.Patch
	if err := c.Bind(&patch); err != nil {
		return badRequest("body", "must be a JSON business profile patch", err)
	}

	t, err := a.eng.UpdateTenant(c.Request().Context(), principalOf(c), tenantID, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (a *API) deleteTenant(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	if err := a.eng.DeleteTenant(c.Request().Context(), principalOf(c), tenantID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ──────────────────────────────────────────────────
// Shifts
// ──────────────────────────────────────────────────

type openShiftRequest struct {
	Date     types.Date `json:"date"`
	OpenedBy string     `json:"opened_by"`
}

func (a *API) openShift(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	var req openShiftRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("body", "must be a JSON object with an optional date", err)
	}

	p := principalOf(c)
	if req.OpenedBy == "" {
		req.OpenedBy = p.UserID
	}
	s, err := a.eng.EnsureOpenShift(c.Request().Context(), p, tenantID, req.Date, req.OpenedBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (a *API) listShifts(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}

	opts := shift.ListOpts{Status: shift.Status(c.QueryParam("status"))}
	if opts.From, err = dateQuery(c, "from"); err != nil {
		return err
	}
	if opts.To, err = dateQuery(c, "to"); err != nil {
		return err
	}
	if opts.Limit, err = intQuery(c, "limit"); err != nil {
		return err
	}
	if opts.Offset, err = intQuery(c, "offset"); err != nil {
		return err
	}

	list, err := a.eng.ListShifts(c.Request().Context(), principalOf(c), tenantID, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"shifts": list})
}

func (a *API) shiftForDate(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	date, err := types.ParseDate(c.Param("date"))
	if err != nil {
		return badRequest("date", "must be a YYYY-MM-DD date", err)
	}

	s, err := a.eng.ShiftForDate(c.Request().Context(), principalOf(c), tenantID, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (a *API) getShift(c echo.Context) error {
	shiftID, err := shiftParam(c)
	if err != nil {
		return err
	}
	s, err := a.eng.GetShift(c.Request().Context(), principalOf(c), shiftID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func (a *API) shiftTotals(c echo.Context) error {
	shiftID, err := shiftParam(c)
	if err != nil {
		return err
	}
	totals, err := a.eng.RecomputeTotals(c.Request().Context(), principalOf(c), shiftID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totals)
}

type closeShiftRequest struct {
	ActualCash decimal.NullDecimal `json:"actual_cash"`
	ClosedBy   string              `json:"closed_by"`
}

func (a *API) closeShift(c echo.Context) error {
	shiftID, err := shiftParam(c)
	if err != nil {
		return err
	}
	var req closeShiftRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("body", "must be a JSON object with actual_cash", err)
	}
	if !req.ActualCash.Valid {
		return badRequest("actual_cash", "is required", nil)
	}

	s, err := a.eng.CloseShift(c.Request().Context(), principalOf(c), shiftID, req.ClosedBy, req.ActualCash.Decimal)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

// ──────────────────────────────────────────────────
// Sales
// ──────────────────────────────────────────────────

type recordSaleRequest struct {
	Number     string          `json:"number"`
	Date       types.Date      `json:"date"`
	Kind       sales.Kind      `json:"kind"`
	Status     sales.Status    `json:"status"`
	Method     sales.Method    `json:"method"`
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	Currency   string          `json:"currency"`
	RecordedBy string          `json:"recorded_by"`
}

type recordSaleResponse struct {
	Sale  *sales.Sale  `json:"sale"`
	Shift *shift.Shift `json:"shift,omitempty"`
}

func (a *API) recordSale(c echo.Context) error {
	tenantID, err := tenantParam(c)
	if err != nil {
		return err
	}
	var req recordSaleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("body", "must be a JSON sale", err)
	}

	p := principalOf(c)
	if req.RecordedBy == "" {
		req.RecordedBy = p.UserID
	}
	sale := &sales.Sale{
		TenantID: tenantID,
		Date:     req.Date,
		Number:   req.Number,
		Kind:     req.Kind,
		Status:   req.Status,
		Method:   req.Method,
		Total:    req.Total,
		Discount: req.Discount,
		Currency: req.Currency,
	}

	rec, s, err := a.eng.RecordSale(c.Request().Context(), p, sale, req.RecordedBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recordSaleResponse{Sale: rec, Shift: s})
}

// ──────────────────────────────────────────────────
// Parameters
// ──────────────────────────────────────────────────

func tenantParam(c echo.Context) (id.TenantID, error) {
	tenantID, err := dreambiz.ParseTenantID(c.Param("tenant_id"))
	if err != nil {
		return id.Nil, badRequest("tenant_id", "is not a valid business profile id", err)
	}
	return tenantID, nil
}

func shiftParam(c echo.Context) (id.ShiftID, error) {
	shiftID, err := dreambiz.ParseShiftID(c.Param("shift_id"))
	if err != nil {
		return id.Nil, badRequest("shift_id", "is not a valid shift id", err)
	}
	return shiftID, nil
}

func dateQuery(c echo.Context, name string) (types.Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return types.Date{}, nil
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, badRequest(name, "must be a YYYY-MM-DD date", err)
	}
	return d, nil
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest(name, "must be a non-negative integer", err)
	}
	return n, nil
}
