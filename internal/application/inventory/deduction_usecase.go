package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/stock-ledger/internal/application/inventory")

// Resultados registrados en métricas.
const (
	OutcomeApplied        = "applied"
	OutcomeAlreadyApplied = "already_applied"
	OutcomeInsufficient   = "insufficient_stock"
	OutcomeLockTimeout    = "lock_timeout"
	OutcomeNotFound       = "not_found"
	OutcomeError          = "error"
)

// DeductInput venta confirmada a traducir en consumo de insumos.
type DeductInput struct {
	TenantID       string
	ActorID        string
	IdempotencyKey string
	Cause          string // por defecto ORDER_DEDUCTION
	Reference      string
	Lines          []domaininv.SaleLine
}

// SkippedIngredient parte opcional de un insumo que no se descontó.
// Required es esa parte; Available lo que quedaba después de la parte obligatoria.
type SkippedIngredient struct {
	StockItemID string
	Required    decimal.Decimal
	Available   decimal.Decimal
}

// DeductResult cantidades finales por insumo tocado, movimientos escritos e insumos omitidos.
type DeductResult struct {
	Quantities map[string]decimal.Decimal
	Entries    []*entity.LedgerEntry
	Skipped    []SkippedIngredient
}

// RestockInput entrada de mercancía para un insumo.
type RestockInput struct {
	TenantID       string
	ItemID         string
	Quantity       decimal.Decimal
	CostPerUnit    *decimal.Decimal
	Cause          string // por defecto PURCHASE
	Reference      string
	IdempotencyKey string // opcional
	ActorID        string
	Notes          string
}

// AdjustInput movimiento manual de un insumo (merma, conteo, salida o entrada manual).
type AdjustInput struct {
	TenantID       string
	ItemID         string
	Delta          decimal.Decimal
	Cause          string
	Reference      string
	IdempotencyKey string
	ActorID        string
	Notes          string
}

// ReverseInput anula una deducción ya aplicada (orden cancelada después de confirmada).
type ReverseInput struct {
	TenantID       string
	IdempotencyKey string // clave de la deducción original
	ReversalKey    string
	ActorID        string
}

// AvailabilityLine disponibilidad de un insumo para N unidades de un compuesto.
type AvailabilityLine struct {
	StockItemID string
	Required    decimal.Decimal
	Available   decimal.Decimal
	Sufficient  bool
	Optional    bool
}

// Availability resultado de CheckAvailability. Available es falso si falta algún insumo obligatorio.
type Availability struct {
	CompositeItemID string
	Units           int
	Available       bool
	Lines           []AvailabilityLine
}

// DeductionUseCase motor de deducción: única vía de escritura de cantidades.
// Cada operación es todo o nada: bloquea las filas en orden ascendente de id, escribe ledger y
// cantidades, sincroniza alertas y confirma; los eventos se publican después del commit.
type DeductionUseCase struct {
	txRunner TxRunner
	itemRepo repository.StockItemRepository
	bomRepo  repository.BomRepository
	alerts   *AlertManager
	log      *logger.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewDeductionUseCase construye el motor. metrics puede ser nil.
func NewDeductionUseCase(
	txRunner TxRunner,
	itemRepo repository.StockItemRepository,
	bomRepo repository.BomRepository,
	alerts *AlertManager,
	log *logger.Logger,
	metrics Metrics,
) *DeductionUseCase {
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &DeductionUseCase{
		txRunner: txRunner,
		itemRepo: itemRepo,
		bomRepo:  bomRepo,
		alerts:   alerts,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}
}

// movement un cambio de cantidad sobre un insumo ya bloqueado.
type movement struct {
	item      *entity.StockItem
	delta     decimal.Decimal
	inCost    *decimal.Decimal // costo de la entrada (solo deltas positivos)
	cause     string
	reference string
	key       string
	actorID   string
	notes     string
}

// Deduct descuenta los insumos de las líneas vendidas según la receta.
func (uc *DeductionUseCase) Deduct(ctx context.Context, in DeductInput) (res *DeductResult, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "inventory.Deduct", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("idempotency_key", in.IdempotencyKey),
		attribute.Int("lines", len(in.Lines)),
	))
	defer func() {
		uc.metrics.DeductionObserved(outcomeOf(err), time.Since(start))
		endSpan(span, err)
	}()

	if in.TenantID == "" || in.IdempotencyKey == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkCallerKey(in.IdempotencyKey); err != nil {
		return nil, err
	}
	if in.Cause == "" {
		in.Cause = entity.CauseOrderDeduction
	}
	if !entity.IsOutboundCause(in.Cause) {
		return nil, fmt.Errorf("causa %q no es de salida: %w", in.Cause, domain.ErrInvalidInput)
	}

	bom, err := uc.loadBom(ctx, in.TenantID, in.Lines)
	if err != nil {
		return nil, err
	}
	reqs, err := domaininv.ExpandRequirements(in.Lines, bom)
	if err != nil {
		return nil, err
	}

	var events []AlertEvent
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		res = &DeductResult{Quantities: make(map[string]decimal.Decimal, len(reqs))}
		events = nil

		items := make([]*entity.StockItem, len(reqs))
		for i, req := range reqs {
			item, err := lockItem(ctx, itemRepo, in.TenantID, req.StockItemID)
			if err != nil {
				return err
			}
			items[i] = item
		}

		claimed, err := ledgerRepo.ClaimKey(ctx, in.TenantID, in.IdempotencyKey, in.Cause)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrAlreadyApplied
		}

		var moves []movement
		for i, req := range reqs {
			item := items[i]
			deduct, skipped, ok := req.Plan(item.CurrentQuantity)
			if !ok {
				return &domain.InsufficientStockError{
					ItemID:    item.ID,
					Available: item.CurrentQuantity,
					Required:  req.Required,
				}
			}
			if skipped.IsPositive() {
				res.Skipped = append(res.Skipped, SkippedIngredient{
					StockItemID: item.ID,
					Required:    skipped,
					Available:   item.CurrentQuantity.Sub(req.Required),
				})
			}
			if deduct.IsPositive() {
				moves = append(moves, movement{
					item:      item,
					delta:     deduct.Neg(),
					cause:     in.Cause,
					reference: in.Reference,
					key:       in.IdempotencyKey,
					actorID:   in.ActorID,
				})
			}
		}

		now := uc.now()
		for _, mv := range moves {
			entry, evs, err := uc.apply(ctx, itemRepo, ledgerRepo, alertRepo, mv, now)
			if err != nil {
				return err
			}
			res.Entries = append(res.Entries, entry)
			res.Quantities[entry.StockItemID] = entry.QuantityAfter
			events = append(events, evs...)
		}
		return nil
	})
	if err != nil {
		uc.logFailure(err, "deducción", in.TenantID, in.IdempotencyKey)
		return nil, err
	}

	log := uc.log.Tenant(in.TenantID)
	for _, s := range res.Skipped {
		log.Warn().
			Str("idempotency_key", in.IdempotencyKey).
			Str("item_id", s.StockItemID).
			Str("required", s.Required.String()).
			Str("available", s.Available.String()).
			Msg("insumo opcional omitido por stock insuficiente")
	}
	uc.metrics.LedgerEntriesWritten(in.Cause, len(res.Entries))
	log.Info().
		Str("idempotency_key", in.IdempotencyKey).
		Str("reference", in.Reference).
		Int("entries", len(res.Entries)).
		Int("skipped", len(res.Skipped)).
		Msg("deducción aplicada")
	uc.alerts.Publish(ctx, events)
	return res, nil
}

// Restock registra una entrada de mercancía. No valida disponibilidad.
// Con costo informado, el costo unitario pasa a ser el promedio ponderado.
func (uc *DeductionUseCase) Restock(ctx context.Context, in RestockInput) (entry *entity.LedgerEntry, err error) {
	ctx, span := tracer.Start(ctx, "inventory.Restock", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("item_id", in.ItemID),
	))
	defer func() { endSpan(span, err) }()

	if in.TenantID == "" || in.ItemID == "" || !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if in.CostPerUnit != nil && in.CostPerUnit.IsNegative() {
		return nil, fmt.Errorf("costo negativo: %w", domain.ErrInvalidInput)
	}
	if in.Cause == "" {
		in.Cause = entity.CausePurchase
	}
	if !entity.IsInboundCause(in.Cause) {
		return nil, fmt.Errorf("causa %q no es de entrada: %w", in.Cause, domain.ErrInvalidInput)
	}
	return uc.single(ctx, in.TenantID, in.IdempotencyKey, movement{
		delta:     in.Quantity,
		inCost:    in.CostPerUnit,
		cause:     in.Cause,
		reference: in.Reference,
		key:       in.IdempotencyKey,
		actorID:   in.ActorID,
		notes:     in.Notes,
	}, in.ItemID)
}

// Adjust movimiento manual de un insumo. El signo debe corresponder a la causa;
// MANUAL_ADJUSTMENT admite ambos. Los deltas negativos no pueden dejar stock negativo.
func (uc *DeductionUseCase) Adjust(ctx context.Context, in AdjustInput) (entry *entity.LedgerEntry, err error) {
	ctx, span := tracer.Start(ctx, "inventory.Adjust", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("item_id", in.ItemID),
		attribute.String("cause", in.Cause),
	))
	defer func() { endSpan(span, err) }()

	if in.TenantID == "" || in.ItemID == "" || in.Delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	switch {
	case !entity.IsValidCause(in.Cause):
		return nil, fmt.Errorf("causa %q desconocida: %w", in.Cause, domain.ErrInvalidInput)
	case entity.IsInboundCause(in.Cause) && in.Delta.IsNegative():
		return nil, fmt.Errorf("causa %q requiere delta positivo: %w", in.Cause, domain.ErrInvalidInput)
	case entity.IsOutboundCause(in.Cause) && in.Delta.IsPositive():
		return nil, fmt.Errorf("causa %q requiere delta negativo: %w", in.Cause, domain.ErrInvalidInput)
	}
	return uc.single(ctx, in.TenantID, in.IdempotencyKey, movement{
		delta:     in.Delta,
		cause:     in.Cause,
		reference: in.Reference,
		key:       in.IdempotencyKey,
		actorID:   in.ActorID,
		notes:     in.Notes,
	}, in.ItemID)
}

// single aplica un movimiento sobre un único insumo con idempotencia opcional.
func (uc *DeductionUseCase) single(ctx context.Context, tenantID, key string, mv movement, itemID string) (*entity.LedgerEntry, error) {
	if err := checkCallerKey(key); err != nil {
		return nil, err
	}
	var (
		entry  *entity.LedgerEntry
		events []AlertEvent
	)
	err := uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		events = nil
		item, err := lockItem(ctx, itemRepo, tenantID, itemID)
		if err != nil {
			return err
		}
		if key != "" {
			claimed, err := ledgerRepo.ClaimKey(ctx, tenantID, key, mv.cause)
			if err != nil {
				return err
			}
			if !claimed {
				return domain.ErrAlreadyApplied
			}
		}
		mv.item = item
		var evs []AlertEvent
		entry, evs, err = uc.apply(ctx, itemRepo, ledgerRepo, alertRepo, mv, uc.now())
		events = evs
		return err
	})
	if err != nil {
		uc.logFailure(err, "movimiento "+mv.cause, tenantID, key)
		return nil, err
	}
	uc.metrics.LedgerEntriesWritten(mv.cause, 1)
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("item_id", itemID).
		Str("cause", mv.cause).
		Str("delta", mv.delta.String()).
		Str("quantity", entry.QuantityAfter.String()).
		Msg("movimiento aplicado")
	uc.alerts.Publish(ctx, events)
	return entry, nil
}

// Reverse devuelve al inventario lo descontado por una deducción previa (entradas RETURN).
// Es idempotente sobre ReversalKey y una deducción solo puede revertirse una vez.
func (uc *DeductionUseCase) Reverse(ctx context.Context, in ReverseInput) (res *DeductResult, err error) {
	ctx, span := tracer.Start(ctx, "inventory.Reverse", trace.WithAttributes(
		attribute.String("tenant_id", in.TenantID),
		attribute.String("idempotency_key", in.IdempotencyKey),
	))
	defer func() { endSpan(span, err) }()

	if in.TenantID == "" || in.IdempotencyKey == "" || in.ReversalKey == "" || in.ReversalKey == in.IdempotencyKey {
		return nil, domain.ErrInvalidInput
	}
	for _, key := range []string{in.IdempotencyKey, in.ReversalKey} {
		if err := checkCallerKey(key); err != nil {
			return nil, err
		}
	}

	var events []AlertEvent
	err = uc.txRunner.Run(ctx, func(
		itemRepo repository.StockItemRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		res = &DeductResult{Quantities: make(map[string]decimal.Decimal)}
		events = nil

		original, err := ledgerRepo.List(ctx, repository.LedgerFilter{
			TenantID:       in.TenantID,
			IdempotencyKey: in.IdempotencyKey,
			Limit:          maxPageLimit,
		})
		if err != nil {
			return err
		}
		owed := make(map[string]decimal.Decimal)
		ids := make([]string, 0, len(original))
		for _, e := range original {
			if !e.Delta.IsNegative() {
				continue
			}
			owed[e.StockItemID] = owed[e.StockItemID].Add(e.Delta.Neg())
			ids = append(ids, e.StockItemID)
		}
		if len(owed) == 0 {
			return domain.ErrNotFound
		}

		ids = domaininv.SortedIDs(ids...)
		items := make([]*entity.StockItem, len(ids))
		for i, id := range ids {
			item, err := lockItem(ctx, itemRepo, in.TenantID, id)
			if err != nil {
				return err
			}
			items[i] = item
		}

		for _, key := range []string{in.ReversalKey, reversalMarker(in.IdempotencyKey)} {
			claimed, err := ledgerRepo.ClaimKey(ctx, in.TenantID, key, entity.CauseReturn)
			if err != nil {
				return err
			}
			if !claimed {
				return domain.ErrAlreadyApplied
			}
		}

		now := uc.now()
		for _, item := range items {
			entry, evs, err := uc.apply(ctx, itemRepo, ledgerRepo, alertRepo, movement{
				item:      item,
				delta:     owed[item.ID],
				cause:     entity.CauseReturn,
				reference: in.IdempotencyKey,
				key:       in.ReversalKey,
				actorID:   in.ActorID,
				notes:     "reversión de deducción",
			}, now)
			if err != nil {
				return err
			}
			res.Entries = append(res.Entries, entry)
			res.Quantities[item.ID] = entry.QuantityAfter
			events = append(events, evs...)
		}
		return nil
	})
	if err != nil {
		uc.logFailure(err, "reversión", in.TenantID, in.ReversalKey)
		return nil, err
	}
	uc.metrics.LedgerEntriesWritten(entity.CauseReturn, len(res.Entries))
	uc.log.Info().
		Str("tenant_id", in.TenantID).
		Str("idempotency_key", in.IdempotencyKey).
		Str("reversal_key", in.ReversalKey).
		Int("entries", len(res.Entries)).
		Msg("deducción revertida")
	uc.alerts.Publish(ctx, events)
	return res, nil
}

// CheckAvailability consulta de solo lectura, sin bloqueos: el resultado puede quedar obsoleto.
func (uc *DeductionUseCase) CheckAvailability(ctx context.Context, tenantID, compositeID string, units int) (*Availability, error) {
	ctx, span := tracer.Start(ctx, "inventory.CheckAvailability")
	defer span.End()

	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	lines := []domaininv.SaleLine{{CompositeItemID: compositeID, Units: units}}
	bom, err := uc.loadBom(ctx, tenantID, lines)
	if err != nil {
		return nil, err
	}
	reqs, err := domaininv.ExpandRequirements(lines, bom)
	if err != nil {
		return nil, err
	}

	out := &Availability{CompositeItemID: compositeID, Units: units, Available: true}
	for _, req := range reqs {
		item, err := uc.itemRepo.GetByID(ctx, req.StockItemID)
		if err != nil {
			return nil, err
		}
		available := decimal.Zero
		if item != nil && item.TenantID == tenantID {
			available = item.CurrentQuantity
		}
		if available.LessThan(req.Required) {
			out.Available = false
		}
		out.Lines = append(out.Lines, AvailabilityLine{
			StockItemID: req.StockItemID,
			Required:    req.Total(),
			Available:   available,
			Sufficient:  available.GreaterThanOrEqual(req.Total()),
			Optional:    req.IsOptional(),
		})
	}
	return out, nil
}

// apply escribe el movimiento: CAS de cantidad, entrada de ledger y sincronización de alertas.
func (uc *DeductionUseCase) apply(
	ctx context.Context,
	itemRepo repository.StockItemRepository,
	ledgerRepo repository.LedgerRepository,
	alertRepo repository.AlertRepository,
	mv movement,
	now time.Time,
) (*entity.LedgerEntry, []AlertEvent, error) {
	item := mv.item
	before := item.CurrentQuantity
	after := before.Add(mv.delta)
	if after.IsNegative() {
		return nil, nil, &domain.InsufficientStockError{
			ItemID:    item.ID,
			Available: before,
			Required:  mv.delta.Neg(),
		}
	}
	prevStatus := item.Status()

	entryCost := item.CostPerUnit
	newCost := item.CostPerUnit
	if mv.delta.IsPositive() && mv.inCost != nil {
		entryCost = *mv.inCost
		newCost = domaininv.CostCalculator(before, item.CostPerUnit, mv.delta, *mv.inCost)
	}

	if err := itemRepo.UpdateQuantity(ctx, item.ID, before, after, newCost); err != nil {
		return nil, nil, err
	}
	entry := &entity.LedgerEntry{
		ID:             uuid.New().String(),
		TenantID:       item.TenantID,
		StockItemID:    item.ID,
		Delta:          mv.delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		CostPerUnit:    entryCost,
		TotalCost:      mv.delta.Abs().Mul(entryCost).Round(4),
		Cause:          mv.cause,
		Reference:      mv.reference,
		IdempotencyKey: mv.key,
		ActorID:        mv.actorID,
		Notes:          mv.notes,
		CreatedAt:      now,
	}
	if err := ledgerRepo.Append(ctx, entry); err != nil {
		return nil, nil, err
	}

	item.CurrentQuantity = after
	item.CostPerUnit = newCost
	item.UpdatedAt = now
	events, err := uc.alerts.Sync(ctx, alertRepo, item, prevStatus, now)
	if err != nil {
		return nil, nil, err
	}
	return entry, events, nil
}

// loadBom carga la receta de cada compuesto distinto. Los compuestos sin vínculos quedan fuera del mapa.
func (uc *DeductionUseCase) loadBom(ctx context.Context, tenantID string, lines []domaininv.SaleLine) (map[string][]entity.BomLink, error) {
	bom := make(map[string][]entity.BomLink, len(lines))
	for _, line := range lines {
		if line.CompositeItemID == "" {
			return nil, domain.ErrInvalidInput
		}
		if _, ok := bom[line.CompositeItemID]; ok {
			continue
		}
		links, err := uc.bomRepo.RequirementsFor(ctx, tenantID, line.CompositeItemID)
		if err != nil {
			return nil, err
		}
		if len(links) == 0 {
			return nil, fmt.Errorf("receta de %s: %w", line.CompositeItemID, domain.ErrNotFound)
		}
		bom[line.CompositeItemID] = links
	}
	return bom, nil
}

func (uc *DeductionUseCase) logFailure(err error, op, tenantID, key string) {
	lvl := zerolog.ErrorLevel
	switch {
	case errors.Is(err, domain.ErrLockTimeout):
		lvl = zerolog.WarnLevel
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidInput):
		lvl = zerolog.InfoLevel
	}
	uc.log.Tenant(tenantID).WithLevel(lvl).Err(err).Str("idempotency_key", key).Msg(op + " no aplicada")
}

// lockItem bloquea el insumo y valida que pertenezca al tenant.
func lockItem(ctx context.Context, itemRepo repository.StockItemRepository, tenantID, id string) (*entity.StockItem, error) {
	item, err := itemRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.TenantID != tenantID {
		return nil, fmt.Errorf("insumo %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// reversalPrefix marca interna "esta deducción ya fue revertida". Las claves de los
// llamadores no pueden usarla.
const reversalPrefix = "reverse:"

func reversalMarker(key string) string {
	return reversalPrefix + key
}

func checkCallerKey(key string) error {
	if strings.HasPrefix(key, reversalPrefix) {
		return fmt.Errorf("clave %q usa el prefijo reservado %q: %w", key, reversalPrefix, domain.ErrInvalidInput)
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, domain.ErrAlreadyApplied):
		return OutcomeAlreadyApplied
	case errors.Is(err, domain.ErrInsufficientStock):
		return OutcomeInsufficient
	case errors.Is(err, domain.ErrLockTimeout):
		return OutcomeLockTimeout
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	}
	return OutcomeError
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrAlreadyApplied) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
