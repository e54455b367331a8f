package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/veltasoft/worksuite/internal/app/domain/sheet"
	"github.com/veltasoft/worksuite/internal/app/storage"
	"github.com/veltasoft/worksuite/pkg/logger"
)

// Service manages spreadsheets. Setting a cell re-evaluates the whole sheet
// through the dependency graph; cycles surface as #CYCLE! on the cells
// involved and leave the rest of the sheet intact.
type Service struct {
	tenants storage.TenantStore
	store   storage.SheetStore
	log     *logger.Logger
}

// New constructs a sheets service.
func New(tenants storage.TenantStore, store storage.SheetStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sheets")
	}
	return &Service{tenants: tenants, store: store, log: log}
}

// Create registers an empty sheet.
func (s *Service) Create(ctx context.Context, tenantID, name string) (sheet.Sheet, error) {
	if strings.TrimSpace(name) == "" {
		return sheet.Sheet{}, fmt.Errorf("name is required")
	}
	if s.tenants != nil {
		if _, err := s.tenants.GetTenant(ctx, tenantID); err != nil {
			return sheet.Sheet{}, fmt.Errorf("tenant validation failed: %w", err)
		}
	}
	created, err := s.store.CreateSheet(ctx, sheet.Sheet{TenantID: tenantID, Name: strings.TrimSpace(name)})
	if err != nil {
		return sheet.Sheet{}, err
	}
	s.log.WithField("sheet_id", created.ID).WithField("tenant_id", tenantID).Info("sheet created")
	return created, nil
}

// Get fetches a sheet.
func (s *Service) Get(ctx context.Context, id string) (sheet.Sheet, error) {
	return s.store.GetSheet(ctx, id)
}

// List lists a tenant's sheets.
func (s *Service) List(ctx context.Context, tenantID string) ([]sheet.Sheet, error) {
	return s.store.ListSheets(ctx, tenantID)
}

// Delete removes a sheet and its cells.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteSheet(ctx, id)
}

// SetCell writes a cell and recomputes the sheet. An empty input clears the
// cell. The returned cell carries the computed value.
func (s *Service) SetCell(ctx context.Context, sheetID, ref, input string) (sheet.Cell, error) {
	col, row, err := parseRef(ref)
	if err != nil {
		return sheet.Cell{}, err
	}
	canonical := formatRef(col, row)

	inputs, err := s.loadInputs(ctx, sheetID)
	if err != nil {
		return sheet.Cell{}, err
	}

	if strings.TrimSpace(input) == "" {
		delete(inputs, canonical)
	} else {
		inputs[canonical] = input
	}

	computed := evalSheet(inputs)

	// Persist the whole recomputed sheet; cleared cells are written as
	// empty so the store drops them.
	cells := make([]sheet.Cell, 0, len(computed)+1)
	if _, ok := inputs[canonical]; !ok {
		cells = append(cells, sheet.Cell{Ref: canonical})
	}
	for _, c := range computed {
		cells = append(cells, c)
	}
	if err := s.store.PutCells(ctx, sheetID, cells); err != nil {
		return sheet.Cell{}, err
	}

	for _, c := range computed {
		if c.Ref == canonical {
			return c, nil
		}
	}
	return sheet.Cell{Ref: canonical}, nil
}

// Cells returns the computed cells of a sheet.
func (s *Service) Cells(ctx context.Context, sheetID string) ([]sheet.Cell, error) {
	return s.store.GetCells(ctx, sheetID)
}

// GetCell returns one computed cell; an unset cell comes back empty.
func (s *Service) GetCell(ctx context.Context, sheetID, ref string) (sheet.Cell, error) {
	col, row, err := parseRef(ref)
	if err != nil {
		return sheet.Cell{}, err
	}
	canonical := formatRef(col, row)

	cells, err := s.store.GetCells(ctx, sheetID)
	if err != nil {
		return sheet.Cell{}, err
	}
	for _, c := range cells {
		if c.Ref == canonical {
			return c, nil
		}
	}
	return sheet.Cell{Ref: canonical}, nil
}

// Range returns the computed cells inside a rectangular range, in row
// order, including empty placeholders.
func (s *Service) Range(ctx context.Context, sheetID, from, to string) ([]sheet.Cell, error) {
	refs, err := expandRange(from, to)
	if err != nil {
		return nil, err
	}
	cells, err := s.store.GetCells(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	byRef := make(map[string]sheet.Cell, len(cells))
	for _, c := range cells {
		byRef[c.Ref] = c
	}
	out := make([]sheet.Cell, 0, len(refs))
	for _, ref := range refs {
		if c, ok := byRef[ref]; ok {
			out = append(out, c)
		} else {
			out = append(out, sheet.Cell{Ref: ref})
		}
	}
	return out, nil
}

func (s *Service) loadInputs(ctx context.Context, sheetID string) (map[string]string, error) {
	cells, err := s.store.GetCells(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	inputs := make(map[string]string, len(cells))
	for _, c := range cells {
		if c.Input != "" {
			inputs[c.Ref] = c.Input
		}
	}
	return inputs, nil
}

// --- sheet evaluation --------------------------------------------------------

type cellState int

const (
	stateUnvisited cellState = iota
	stateInProgress
	stateDone
)

type evaluator struct {
	inputs map[string]string
	state  map[string]cellState
	values map[string]Value
	errs   map[string]string
}

// evalSheet computes every cell of the sheet from its raw inputs.
func evalSheet(inputs map[string]string) []sheet.Cell {
	e := &evaluator{
		inputs: inputs,
		state:  make(map[string]cellState, len(inputs)),
		values: make(map[string]Value, len(inputs)),
		errs:   make(map[string]string, len(inputs)),
	}
	for ref := range inputs {
		e.compute(ref)
	}

	out := make([]sheet.Cell, 0, len(inputs))
	for ref, input := range inputs {
		c := sheet.Cell{Ref: ref, Input: input}
		if msg, ok := e.errs[ref]; ok {
			c.Err = msg
			c.Value = errCode(msg)
		} else {
			c.Value = e.values[ref].Format()
		}
		out = append(out, c)
	}
	return out
}

func (e *evaluator) compute(ref string) {
	switch e.state[ref] {
	case stateDone:
		return
	case stateInProgress:
		// Back edge; the caller reports the cycle.
		return
	}
	e.state[ref] = stateInProgress
	defer func() { e.state[ref] = stateDone }()

	input := e.inputs[ref]
	if !strings.HasPrefix(input, "=") {
		e.values[ref] = parseLiteral(input)
		return
	}

	ast, _, err := parseFormula(input[1:])
	if err != nil {
		e.errs[ref] = err.Error()
		return
	}
	v, err := ast.eval(e)
	if err != nil {
		e.errs[ref] = err.Error()
		return
	}
	e.values[ref] = v
}

// cell resolves a reference during evaluation, computing it on demand.
func (e *evaluator) cell(ref string) (Value, error) {
	col, row, err := parseRef(ref)
	if err != nil {
		return Value{}, fmt.Errorf("%s", errRef)
	}
	canonical := formatRef(col, row)

	if _, ok := e.inputs[canonical]; !ok {
		return Value{}, nil
	}
	prior := e.state[canonical]
	if prior == stateInProgress {
		return Value{}, fmt.Errorf("%s", errCycle)
	}
	e.compute(canonical)
	if msg, ok := e.errs[canonical]; ok {
		// A cycle discovered during this walk taints the whole chain;
		// a reference to a previously errored cell propagates #ERROR!.
		if prior == stateUnvisited && errCode(msg) == errCycle {
			return Value{}, fmt.Errorf("%s", errCycle)
		}
		return Value{}, fmt.Errorf("%s", errPropag)
	}
	return e.values[canonical], nil
}

func (e *evaluator) cellRange(from, to string) ([]Value, error) {
	refs, err := expandRange(from, to)
	if err != nil {
		return nil, fmt.Errorf("%s", errRef)
	}
	out := make([]Value, 0, len(refs))
	for _, ref := range refs {
		v, err := e.cell(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseLiteral interprets a non-formula input.
func parseLiteral(input string) Value {
	trimmed := strings.TrimSpace(input)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return number(n)
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return boolean(true)
	case "FALSE":
		return boolean(false)
	}
	return str(input)
}

// errCode maps an evaluation error message to the cell error code shown to
// clients. Messages that already are codes pass through.
func errCode(msg string) string {
	if strings.HasPrefix(msg, "#") {
		return msg
	}
	return errValue
}
