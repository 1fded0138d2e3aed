package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/finance"
	"github.com/jmtruffa/finsim/present"
	"github.com/jmtruffa/finsim/store"
	"github.com/rs/zerolog"
)

type handler struct {
	deps Dependencies
	now  func() time.Time
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type valueResponse struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

type npvRequest struct {
	CashFlows   []float64 `json:"cash_flows" binding:"required,min=1"`
	RatePercent float64   `json:"rate_percent" binding:"rate_pct"`
}

type irrRequest struct {
	CashFlows []float64 `json:"cash_flows" binding:"required,min=1"`
}

type loanRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	RatePercent float64 `json:"rate_percent" binding:"rate_pct"`
	// Periods above finance.MaxSchedulePeriods are rejected before any schedule is built.
	Periods     int     `json:"periods" binding:"lte=1200"`
}

type loanResponse struct {
	Payment          float64          `json:"payment"`
	FormattedPayment string           `json:"formatted_payment"`
	TotalPaid        float64          `json:"total_paid"`
	TotalInterest    float64          `json:"total_interest"`
	Schedule         finance.Schedule `json:"schedule"`
}

type retirementRequest struct {
	AnnualWithdrawal float64 `json:"annual_withdrawal" binding:"gte=0"`
	WithdrawYears    int     `json:"withdraw_years"`
	DepositYears     int     `json:"deposit_years"`
	RatePercent      float64 `json:"rate_percent" binding:"rate_pct"`
}

type retirementResponse struct {
	finance.RetirementPlan
	Formatted string `json:"formatted"`
}

type compoundingRequest struct {
	Principal   float64 `json:"principal"`
	RatePercent float64 `json:"rate_percent"`
	Years       float64 `json:"years" binding:"gte=0"`
}

type compoundingResponse struct {
	Continuous valueResponse               `json:"continuous"`
	Comparison []finance.CompoundingResult `json:"comparison"`
}

type datedRequest struct {
	Dates       []string  `json:"dates" binding:"required,min=1,dive,datetime=2006-01-02"`
	CashFlows   []float64 `json:"cash_flows" binding:"required,min=1"`
	RatePercent float64   `json:"rate_percent" binding:"rate_pct"`
	// Roll is a business-day convention applied to every date before valuing.
	Roll string `json:"roll"`
}

type instrumentSummary struct {
	Ticker      string `json:"ticker"`
	Description string `json:"description"`
	DayCount    string `json:"day_count"`
	Cashflows   int    `json:"cashflows"`
}

type instrumentValueResponse struct {
	Ticker     string  `json:"ticker"`
	Settlement string  `json:"settlement"`
	Value      float64 `json:"value"`
	Formatted  string  `json:"formatted"`
}

func (h *handler) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.deps.Calendar != nil {
		body["holidays"] = h.deps.Calendar.Holidays()
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) npv(c *gin.Context) {
	var req npvRequest
	if !bind(c, &req) {
		return
	}
	npv, err := finance.NPV(req.CashFlows, present.Rate(req.RatePercent))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueResponse{Value: npv, Formatted: present.Money(npv)})
}

func (h *handler) irr(c *gin.Context) {
	var req irrRequest
	if !bind(c, &req) {
		return
	}
	irr, err := h.deps.Valuer.IRR(req.CashFlows)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueResponse{Value: irr, Formatted: present.Percent(irr)})
}

func (h *handler) loan(c *gin.Context) {
	var req loanRequest
	if !bind(c, &req) {
		return
	}
	schedule, err := finance.BuildSchedule(req.Amount, present.Rate(req.RatePercent), req.Periods)
	if err != nil {
		h.fail(c, err)
		return
	}
	payment := schedule[0].Payment
	c.JSON(http.StatusOK, loanResponse{
		Payment:          payment,
		FormattedPayment: present.Money(payment),
		TotalPaid:        schedule.TotalPaid(),
		TotalInterest:    schedule.TotalInterest(),
		Schedule:         schedule,
	})
}

func (h *handler) retirement(c *gin.Context) {
	var req retirementRequest
	if !bind(c, &req) {
		return
	}
	plan, err := finance.PlanRetirement(req.AnnualWithdrawal, req.WithdrawYears, req.DepositYears, present.Rate(req.RatePercent))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, retirementResponse{RetirementPlan: plan, Formatted: present.Money(plan.AnnualDeposit)})
}

func (h *handler) compounding(c *gin.Context) {
	var req compoundingRequest
	if !bind(c, &req) {
		return
	}
	rate := present.Rate(req.RatePercent)
	results, err := finance.CompareCompounding(req.Principal, rate, req.Years)
	if err != nil {
		h.fail(c, err)
		return
	}
	fv := results[len(results)-1].FutureValue
	c.JSON(http.StatusOK, compoundingResponse{
		Continuous: valueResponse{Value: fv, Formatted: present.Money(fv)},
		Comparison: results,
	})
}

func (h *handler) xnpv(c *gin.Context) {
	var req datedRequest
	if !bind(c, &req) {
		return
	}
	series, ok := h.datedSeries(c, req)
	if !ok {
		return
	}
	xnpv, err := h.deps.Valuer.XNPV(series, present.Rate(req.RatePercent))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueResponse{Value: xnpv, Formatted: present.Money(xnpv)})
}

func (h *handler) xirr(c *gin.Context) {
	var req datedRequest
	if !bind(c, &req) {
		return
	}
	series, ok := h.datedSeries(c, req)
	if !ok {
		return
	}
	xirr, err := h.deps.Valuer.XIRR(series)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueResponse{Value: xirr, Formatted: present.Percent(xirr)})
}

func (h *handler) datedSeries(c *gin.Context, req datedRequest) ([]finance.DatedCashFlow, bool) {
	dates := make([]time.Time, len(req.Dates))
	for i, d := range req.Dates {
		// Already checked by the datetime binding rule.
		dates[i], _ = time.Parse(finance.DateFormat, d)
	}
	series, err := finance.Zip(dates, req.CashFlows)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}

	roll, err := calendar.ParseRoll(req.Roll)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	if roll != calendar.Unadjusted && h.deps.Calendar != nil {
		series = h.deps.Calendar.AdjustFlows(series, roll)
	}
	return series, true
}

func (h *handler) listInstruments(c *gin.Context) {
	if !h.instrumentsAvailable(c) {
		return
	}
	instruments, err := h.deps.Instruments.LoadInstruments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	summaries := make([]instrumentSummary, 0, len(instruments))
	for _, inst := range instruments {
		summaries = append(summaries, instrumentSummary{
			Ticker:      inst.Ticker,
			Description: inst.Description,
			DayCount:    inst.DayCount.String(),
			Cashflows:   len(inst.Cashflows),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *handler) instrumentYield(c *gin.Context) {
	price, err := strconv.ParseFloat(c.Query("price"), 64)
	if err != nil || price <= 0 {
		badRequest(c, errors.New("price must be a positive number"))
		return
	}
	h.valueInstrument(c, func(v finance.Valuer, inst store.Instrument, settlement time.Time) (valueResponse, error) {
		y, err := v.Yield(inst.Cashflows, price, settlement)
		return valueResponse{Value: y, Formatted: present.Percent(y)}, err
	})
}

func (h *handler) instrumentPrice(c *gin.Context) {
	rate, err := present.ParsePercent(c.Query("rate"))
	if err != nil {
		badRequest(c, err)
		return
	}
	h.valueInstrument(c, func(v finance.Valuer, inst store.Instrument, settlement time.Time) (valueResponse, error) {
		p, err := v.Price(inst.Cashflows, rate, settlement)
		return valueResponse{Value: p, Formatted: present.Money(p)}, err
	})
}

// valueInstrument loads the instrument named in the path, resolves the settlement date
// (today when absent, rolled to the following business day) and runs value.
func (h *handler) valueInstrument(c *gin.Context, value func(finance.Valuer, store.Instrument, time.Time) (valueResponse, error)) {
	if !h.instrumentsAvailable(c) {
		return
	}
	settlement := h.now()
	if s := c.Query("settlement"); s != "" {
		d, err := time.Parse(finance.DateFormat, s)
		if err != nil {
			badRequest(c, errors.New("settlement must be YYYY-MM-DD"))
			return
		}
		settlement = d
	}
	if h.deps.Calendar != nil {
		settlement = h.deps.Calendar.Adjust(settlement, calendar.Following)
	}

	inst, err := h.deps.Instruments.FindInstrument(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		h.fail(c, err)
		return
	}

	v := h.deps.Valuer
	v.DayCount = inst.DayCount
	result, err := value(v, inst, settlement)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, instrumentValueResponse{
		Ticker:     inst.Ticker,
		Settlement: settlement.Format(finance.DateFormat),
		Value:      result.Value,
		Formatted:  result.Formatted,
	})
}

func (h *handler) instrumentsAvailable(c *gin.Context) bool {
	if h.deps.Instruments == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Message: "no instrument store configured"})
		return false
	}
	return true
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_request", Message: err.Error()})
}

// fail maps engine errors to 422 with a user-facing message, missing instruments to 404
// and anything else to 500.
func (h *handler) fail(c *gin.Context, err error) {
	logger := zerolog.Ctx(c.Request.Context())

	if kind := finance.KindOf(err); kind != 0 {
		logger.Debug().Err(err).Msg("calculation rejected")
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: kind.String(), Message: present.ErrorMessage(err)})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()})
		return
	}
	logger.Error().Err(err).Msg("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
}
