package sheets

import (
	"context"
	"testing"

	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
)

func newTestSheet(t *testing.T) (*Service, string) {
	t.Helper()
	store := memory.New()
	tn, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	svc := New(store, store, nil)
	sh, err := svc.Create(context.Background(), tn.ID, "budget")
	if err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	return svc, sh.ID
}

func setCell(t *testing.T, svc *Service, sheetID, ref, input string) {
	t.Helper()
	if _, err := svc.SetCell(context.Background(), sheetID, ref, input); err != nil {
		t.Fatalf("set %s: %v", ref, err)
	}
}

func cellValue(t *testing.T, svc *Service, sheetID, ref string) string {
	t.Helper()
	c, err := svc.GetCell(context.Background(), sheetID, ref)
	if err != nil {
		t.Fatalf("get %s: %v", ref, err)
	}
	return c.Value
}

func TestLiterals(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "42")
	setCell(t, svc, id, "A2", "3.5")
	setCell(t, svc, id, "A3", "true")
	setCell(t, svc, id, "A4", "hello world")

	for ref, want := range map[string]string{
		"A1": "42",
		"A2": "3.5",
		"A3": "TRUE",
		"A4": "hello world",
	} {
		if got := cellValue(t, svc, id, ref); got != want {
			t.Fatalf("%s = %q, want %q", ref, got, want)
		}
	}
}

func TestFormulasRecompute(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "10")
	setCell(t, svc, id, "B1", "4")
	setCell(t, svc, id, "C1", "=A1+B1*2")
	setCell(t, svc, id, "C2", "=C1-A1")

	if got := cellValue(t, svc, id, "C1"); got != "18" {
		t.Fatalf("C1 = %q, want 18", got)
	}
	if got := cellValue(t, svc, id, "C2"); got != "8" {
		t.Fatalf("C2 = %q, want 8", got)
	}

	// Updating an input recomputes dependents.
	setCell(t, svc, id, "A1", "20")
	if got := cellValue(t, svc, id, "C1"); got != "28" {
		t.Fatalf("C1 after update = %q, want 28", got)
	}
	if got := cellValue(t, svc, id, "C2"); got != "8" {
		t.Fatalf("C2 after update = %q, want 8", got)
	}
}

func TestFunctions(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "1")
	setCell(t, svc, id, "A2", "2")
	setCell(t, svc, id, "A3", "3")
	setCell(t, svc, id, "B1", "=SUM(A1:A3)")
	setCell(t, svc, id, "B2", "=AVERAGE(A1:A3)")
	setCell(t, svc, id, "B3", "=MIN(A1:A3)")
	setCell(t, svc, id, "B4", "=MAX(A1:A3)")
	setCell(t, svc, id, "B5", "=COUNT(A1:A4)")
	setCell(t, svc, id, "B6", "=IF(A3>2, \"big\", \"small\")")

	for ref, want := range map[string]string{
		"B1": "6",
		"B2": "2",
		"B3": "1",
		"B4": "3",
		"B5": "3",
		"B6": "big",
	} {
		if got := cellValue(t, svc, id, ref); got != want {
			t.Fatalf("%s = %q, want %q", ref, got, want)
		}
	}
}

func TestCycleDetection(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "=A1+1")
	if got := cellValue(t, svc, id, "A1"); got != "#CYCLE!" {
		t.Fatalf("self reference = %q, want #CYCLE!", got)
	}

	setCell(t, svc, id, "B1", "=C1")
	setCell(t, svc, id, "C1", "=B1")
	if got := cellValue(t, svc, id, "B1"); got != "#CYCLE!" {
		t.Fatalf("B1 = %q, want #CYCLE!", got)
	}
	if got := cellValue(t, svc, id, "C1"); got != "#CYCLE!" {
		t.Fatalf("C1 = %q, want #CYCLE!", got)
	}

	// Breaking the cycle clears the error.
	setCell(t, svc, id, "C1", "5")
	if got := cellValue(t, svc, id, "B1"); got != "5" {
		t.Fatalf("B1 after break = %q, want 5", got)
	}
}

func TestErrorPropagation(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "=1/0")
	setCell(t, svc, id, "A2", "=A1+1")
	setCell(t, svc, id, "A3", "=\"x\"+1")

	if got := cellValue(t, svc, id, "A1"); got != "#DIV/0!" {
		t.Fatalf("A1 = %q, want #DIV/0!", got)
	}
	if got := cellValue(t, svc, id, "A2"); got != "#ERROR!" {
		t.Fatalf("A2 = %q, want #ERROR!", got)
	}
	if got := cellValue(t, svc, id, "A3"); got != "#VALUE!" {
		t.Fatalf("A3 = %q, want #VALUE!", got)
	}
}

func TestClearCell(t *testing.T) {
	svc, id := newTestSheet(t)
	ctx := context.Background()

	setCell(t, svc, id, "A1", "7")
	setCell(t, svc, id, "B1", "=A1*2")
	setCell(t, svc, id, "A1", "")

	// An empty reference counts as zero.
	if got := cellValue(t, svc, id, "B1"); got != "0" {
		t.Fatalf("B1 = %q, want 0", got)
	}
	cells, err := svc.Cells(ctx, id)
	if err != nil {
		t.Fatalf("cells: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("expected 1 stored cell, got %d", len(cells))
	}
}

func TestRefCanonicalization(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "a1", "9")
	c, err := svc.GetCell(context.Background(), id, "A1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Ref != "A1" || c.Value != "9" {
		t.Fatalf("unexpected cell %+v", c)
	}
	if _, err := svc.SetCell(context.Background(), id, "1A", "x"); err == nil {
		t.Fatalf("expected error for malformed ref")
	}
}

func TestRangePlaceholders(t *testing.T) {
	svc, id := newTestSheet(t)

	setCell(t, svc, id, "A1", "1")
	setCell(t, svc, id, "B2", "2")

	cells, err := svc.Range(context.Background(), id, "A1", "B2")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}
	wantRefs := []string{"A1", "B1", "A2", "B2"}
	for i, ref := range wantRefs {
		if cells[i].Ref != ref {
			t.Fatalf("cell %d ref %s, want %s", i, cells[i].Ref, ref)
		}
	}
	if cells[1].Value != "" || cells[1].Input != "" {
		t.Fatalf("B1 should be empty placeholder: %+v", cells[1])
	}
}
