package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/veltasoft/worksuite/internal/app/domain/template"
	"github.com/veltasoft/worksuite/internal/app/domain/tenant"
	"github.com/veltasoft/worksuite/internal/app/services/documents"
	"github.com/veltasoft/worksuite/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, *documents.Service, string) {
	t.Helper()
	store := memory.New()
	tn, err := store.CreateTenant(context.Background(), tenant.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	docs := documents.New(store, store, store, nil)
	return New(store, store, docs, nil), docs, tn.ID
}

func TestPlaceholders(t *testing.T) {
	body := "Dear {{ name }}, your {{item}} ships on {{ date }}. Regards, {{name}}"
	got := Placeholders(body)
	want := []string{"date", "item", "name"}
	if len(got) != len(want) {
		t.Fatalf("placeholders %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placeholders %v, want %v", got, want)
		}
	}
	if got := Placeholders("no placeholders here"); got != nil {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestInstantiate(t *testing.T) {
	svc, docs, tenantID := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, template.Template{
		TenantID: tenantID,
		Name:     "offer-letter",
		Body:     "Dear {{name}}, welcome to {{company}}.",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	doc, err := svc.Instantiate(ctx, tenantID, tpl.ID, "Offer for Ana", "", "hr-bot", map[string]string{
		"name":    "Ana",
		"company": "Acme",
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if doc.Content != "Dear Ana, welcome to Acme." {
		t.Fatalf("content %q", doc.Content)
	}
	if doc.TemplateID != tpl.ID {
		t.Fatalf("template link missing: %+v", doc)
	}

	// The document is a normal versioned document.
	versions, err := docs.Versions(ctx, doc.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("expected initial version, got %d", len(versions))
	}
}

func TestInstantiateDefaultsTitle(t *testing.T) {
	svc, _, tenantID := newTestService(t)
	ctx := context.Background()

	tpl, _ := svc.Create(ctx, template.Template{TenantID: tenantID, Name: "invoice", Body: "total: {{total}}"})
	doc, err := svc.Instantiate(ctx, tenantID, tpl.ID, "", "", "bot", map[string]string{"total": "40"})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if doc.Title != "invoice" {
		t.Fatalf("title %q, want template name", doc.Title)
	}
}

func TestInstantiateMissingValues(t *testing.T) {
	svc, _, tenantID := newTestService(t)
	ctx := context.Background()

	tpl, _ := svc.Create(ctx, template.Template{
		TenantID: tenantID,
		Name:     "contract",
		Body:     "{{party_a}} and {{party_b}} agree on {{date}}",
	})

	_, err := svc.Instantiate(ctx, tenantID, tpl.ID, "c1", "", "bot", map[string]string{"party_a": "Acme"})
	if err == nil {
		t.Fatalf("expected error for missing placeholders")
	}
	if !strings.Contains(err.Error(), "date") || !strings.Contains(err.Error(), "party_b") {
		t.Fatalf("error does not name missing placeholders: %v", err)
	}
}

func TestInstantiateCrossTenant(t *testing.T) {
	svc, _, tenantID := newTestService(t)
	ctx := context.Background()

	tpl, _ := svc.Create(ctx, template.Template{TenantID: tenantID, Name: "t", Body: "x"})
	if _, err := svc.Instantiate(ctx, "someone-else", tpl.ID, "", "", "bot", nil); err == nil {
		t.Fatalf("expected cross-tenant instantiation rejection")
	}
}

func TestUpdate(t *testing.T) {
	svc, _, tenantID := newTestService(t)
	ctx := context.Background()

	tpl, _ := svc.Create(ctx, template.Template{TenantID: tenantID, Name: "memo", Body: "v1"})
	body := "v2 {{x}}"
	updated, err := svc.Update(ctx, tpl.ID, nil, nil, &body)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Body != body || updated.Name != "memo" {
		t.Fatalf("unexpected template %+v", updated)
	}

	empty := " "
	if _, err := svc.Update(ctx, tpl.ID, &empty, nil, nil); err == nil {
		t.Fatalf("expected error for blank name")
	}
}
