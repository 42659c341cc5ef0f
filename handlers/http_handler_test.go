package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/data"
	"github.com/labelcheck/labelcheck-api/dosage"
	"github.com/labelcheck/labelcheck-api/label"
	"github.com/labelcheck/labelcheck-api/report"
	"github.com/labelcheck/labelcheck-api/validation"
)

func floatPtr(v float64) *float64 { return &v }

func testTables() catalog.Tables {
	return catalog.Tables{
		VitaminsMinerals: []entities.VitaminMineral{
			{ID: 1, NameUA: "Вітамін A", NameEN: "Vitamin A",
				NameVariations: []string{"Вітамін А"}, EfsaMapping: "vitamin_a"},
		},
		EfsaLimits: []entities.EfsaLimit{
			{ID: 1, SubstanceKey: "vitamin_a", Tier: entities.TierEfsaUL,
				Value: floatPtr(3000), Unit: "мкг", Source: "EFSA 2023"},
		},
		ForbiddenPhrases: []entities.ForbiddenPhrase{
			{ID: 1, Phrase: "лікує", Category: "medical_claim"},
		},
		MandatoryFields: []entities.MandatoryField{
			{ID: 1, FieldName: "edrpou_code", Criticality: "critical",
				ErrorMessage: "Відсутній код ЄДРПОУ оператора ринку", PenaltyAmount: 62600},
		},
	}
}

func newTestHandler(withCatalog bool) *HTTPHandlerImpl {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())
	if withCatalog {
		store.UpdateCatalog(catalog.New(testTables(), time.Now()))
	}
	return NewHTTPHandler(store, validation.NewLabelValidator())
}

func testLabel() label.Data {
	return label.Data{
		ProductInfo: label.ProductInfo{Name: "Вітамінний комплекс"},
		Ingredients: []label.IngredientRecord{
			{Name: "Вітамін A", Quantity: floatPtr(2000), Unit: "мкг"},
		},
		FullText: "Дієтична добавка. Не перевищувати добову дозу.",
		Operator: label.Operator{Name: "ТОВ Здоров'я", Edrpou: "12345678"},
	}
}

func postLabel(t *testing.T, handler http.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestCheckDosageValidLabel(t *testing.T) {
	h := newTestHandler(true)

	rr := postLabel(t, h.CheckDosage, testLabel())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var result dosage.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !result.AllValid {
		t.Errorf("2000 мкг vitamin A is under the 3000 мкг ceiling: %+v", result)
	}
	if result.TotalIngredientsChecked != 1 {
		t.Errorf("checked = %d, want 1", result.TotalIngredientsChecked)
	}
}

func TestCheckDosageOverLimit(t *testing.T) {
	h := newTestHandler(true)

	data := testLabel()
	data.Ingredients[0].Quantity = floatPtr(3500)

	rr := postLabel(t, h.CheckDosage, data)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var result dosage.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.AllValid || result.ErrorCount != 1 {
		t.Errorf("expected one dosage error, got %+v", result)
	}
}

func TestCheckDosageMalformedJSON(t *testing.T) {
	h := newTestHandler(true)

	req := httptest.NewRequest(http.MethodPost, "/v1/check/dosage", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.CheckDosage(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCheckDosageNamelessIngredient(t *testing.T) {
	h := newTestHandler(true)

	data := testLabel()
	data.Ingredients = append(data.Ingredients, label.IngredientRecord{Quantity: floatPtr(10), Unit: "мг"})

	rr := postLabel(t, h.CheckDosage, data)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("nameless ingredient must be rejected with 400, got %d", rr.Code)
	}
}

func TestCheckDosageCatalogNotLoaded(t *testing.T) {
	h := newTestHandler(false)

	rr := postLabel(t, h.CheckDosage, testLabel())
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before the first catalog load", rr.Code)
	}
}

func TestCheckCompliance(t *testing.T) {
	h := newTestHandler(true)

	data := testLabel()
	data.FullText = "Цей засіб лікує застуду"
	data.Operator.Edrpou = ""

	rr := postLabel(t, h.CheckCompliance, data)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var result ComplianceResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.IsValid {
		t.Error("forbidden phrase and missing field must invalidate")
	}
	if len(result.Errors) != 2 {
		t.Errorf("violations = %d, want 2: %+v", len(result.Errors), result.Errors)
	}
}

func TestCheckComplianceCleanLabel(t *testing.T) {
	h := newTestHandler(true)

	rr := postLabel(t, h.CheckCompliance, testLabel())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var result ComplianceResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !result.IsValid || len(result.Errors) != 0 {
		t.Errorf("clean label must pass, got %+v", result)
	}
}

func TestCheckFull(t *testing.T) {
	h := newTestHandler(true)

	data := testLabel()
	data.Ingredients[0].Quantity = floatPtr(3500)
	data.FullText = "Цей засіб лікує застуду"

	rr := postLabel(t, h.CheckFull, data)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var rep report.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &rep); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if rep.IsValid {
		t.Error("report must be invalid with a dosage error and a forbidden phrase")
	}
	if rep.Stats.TotalDosageErrors != 1 || rep.Stats.TotalForbiddenPhrases != 1 {
		t.Errorf("stats = %+v", rep.Stats)
	}
	if rep.Penalties.TotalAmount != 1280000 {
		t.Errorf("total penalties = %d, want 1280000", rep.Penalties.TotalAmount)
	}
	if rep.ProductInfo.Name != "Вітамінний комплекс" {
		t.Errorf("product info lost: %+v", rep.ProductInfo)
	}
}

func TestHealthCheckHealthy(t *testing.T) {
	h := newTestHandler(true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp HealthResponseImpl
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestHealthCheckWithoutCatalog(t *testing.T) {
	h := newTestHandler(false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.HealthCheck(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var resp HealthResponseImpl
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", resp.Status)
	}
}
