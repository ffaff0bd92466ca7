package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/services"
	"github.com/dobashik/cashflow-maker-web/internal/validator"
)

// --- mock services ---

type mockImportService struct {
	importBatchFn    func(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, records []models.Holding) (*services.ImportResult, error)
	importFileFn     func(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, raw []byte) (*services.ImportResult, error)
	importAnalysisFn func(ctx context.Context, ownerID string, raw []byte) (*services.AnalysisResult, error)
}

var _ services.ImportServicer = (*mockImportService)(nil)

func (m *mockImportService) ImportBatch(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, records []models.Holding) (*services.ImportResult, error) {
	if m.importBatchFn != nil {
		return m.importBatchFn(ctx, ownerID, source, mode, records)
	}
	return &services.ImportResult{Success: true, Source: source, Mode: mode, Imported: len(records)}, nil
}

func (m *mockImportService) ImportFile(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, raw []byte) (*services.ImportResult, error) {
	if m.importFileFn != nil {
		return m.importFileFn(ctx, ownerID, source, mode, raw)
	}
	return &services.ImportResult{Success: true, Source: source, Mode: mode}, nil
}

func (m *mockImportService) ImportAnalysis(ctx context.Context, ownerID string, raw []byte) (*services.AnalysisResult, error) {
	if m.importAnalysisFn != nil {
		return m.importAnalysisFn(ctx, ownerID, raw)
	}
	return &services.AnalysisResult{Success: true}, nil
}

func (m *mockImportService) UpdateAnalysis(_ context.Context, _ string, updates []models.AnalystUpdate) (*services.AnalysisResult, error) {
	return &services.AnalysisResult{Success: true, Parsed: len(updates)}, nil
}

type mockHoldingService struct {
	listHoldingsFn   func(ctx context.Context, ownerID string, filter services.HoldingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	positionsFn      func(ctx context.Context, ownerID string) (*services.PositionsView, error)
	deleteAllFn      func(ctx context.Context, ownerID string) (int64, error)
	deleteBySourceFn func(ctx context.Context, ownerID string, source models.Source) (int64, error)
	updateDividendFn func(ctx context.Context, ownerID, code string, update services.DividendUpdate) (int64, error)
}

var _ services.HoldingServicer = (*mockHoldingService)(nil)

func (m *mockHoldingService) ListHoldings(ctx context.Context, ownerID string, filter services.HoldingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	if m.listHoldingsFn != nil {
		return m.listHoldingsFn(ctx, ownerID, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Holding{}, 1, 50, 0)
	return &resp, nil
}

func (m *mockHoldingService) Positions(ctx context.Context, ownerID string) (*services.PositionsView, error) {
	if m.positionsFn != nil {
		return m.positionsFn(ctx, ownerID)
	}
	return &services.PositionsView{}, nil
}

func (m *mockHoldingService) HeldCodes(context.Context, string) ([]string, error) {
	return nil, nil
}

func (m *mockHoldingService) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockHoldingService) DeleteBySource(ctx context.Context, ownerID string, source models.Source) (int64, error) {
	if m.deleteBySourceFn != nil {
		return m.deleteBySourceFn(ctx, ownerID, source)
	}
	return 0, nil
}

func (m *mockHoldingService) UpdateDividend(ctx context.Context, ownerID, code string, update services.DividendUpdate) (int64, error) {
	if m.updateDividendFn != nil {
		return m.updateDividendFn(ctx, ownerID, code, update)
	}
	return 1, nil
}

type mockSecurityService struct {
	updateSectorsFn   func(ctx context.Context, ownerID string) (*services.MetadataResult, error)
	refreshMetadataFn func(ctx context.Context) (*services.MetadataResult, error)
	listSecuritiesFn  func(ctx context.Context, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error)
	getSecurityFn     func(ctx context.Context, code string) (*models.Security, error)
}

var _ services.SecurityServicer = (*mockSecurityService)(nil)

func (m *mockSecurityService) RegisterNew(context.Context, []string) ([]string, error) {
	return nil, nil
}

func (m *mockSecurityService) RefreshMetadata(ctx context.Context) (*services.MetadataResult, error) {
	if m.refreshMetadataFn != nil {
		return m.refreshMetadataFn(ctx)
	}
	return &services.MetadataResult{Success: true}, nil
}

func (m *mockSecurityService) UpdateSectors(ctx context.Context, ownerID string) (*services.MetadataResult, error) {
	if m.updateSectorsFn != nil {
		return m.updateSectorsFn(ctx, ownerID)
	}
	return &services.MetadataResult{Success: true}, nil
}

func (m *mockSecurityService) ListSecurities(ctx context.Context, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
	if m.listSecuritiesFn != nil {
		return m.listSecuritiesFn(ctx, search, page)
	}
	resp := pagination.NewPageResponse([]models.Security{}, 1, 50, 0)
	return &resp, nil
}

func (m *mockSecurityService) GetSecurity(ctx context.Context, code string) (*models.Security, error) {
	if m.getSecurityFn != nil {
		return m.getSecurityFn(ctx, code)
	}
	return &models.Security{Code: code}, nil
}

type mockPriceService struct {
	refreshForOwnerFn         func(ctx context.Context, ownerID string) (*services.RefreshResult, error)
	refreshForNewSecuritiesFn func(ctx context.Context, ownerID string, candidates []string) (*services.RefreshResult, error)
	refreshMasterFn           func(ctx context.Context, mode models.RefreshMode) (*services.RefreshResult, error)
}

var _ services.PriceServicer = (*mockPriceService)(nil)

func (m *mockPriceService) RefreshForOwner(ctx context.Context, ownerID string) (*services.RefreshResult, error) {
	if m.refreshForOwnerFn != nil {
		return m.refreshForOwnerFn(ctx, ownerID)
	}
	return &services.RefreshResult{Success: true}, nil
}

func (m *mockPriceService) RefreshForNewSecurities(ctx context.Context, ownerID string, candidates []string) (*services.RefreshResult, error) {
	if m.refreshForNewSecuritiesFn != nil {
		return m.refreshForNewSecuritiesFn(ctx, ownerID, candidates)
	}
	return &services.RefreshResult{Success: true}, nil
}

func (m *mockPriceService) RefreshMaster(ctx context.Context, mode models.RefreshMode) (*services.RefreshResult, error) {
	if m.refreshMasterFn != nil {
		return m.refreshMasterFn(ctx, mode)
	}
	return &services.RefreshResult{Success: true}, nil
}

type auditCall struct {
	ownerID, action, resourceType, resourceID string
}

type mockAuditService struct {
	calls []auditCall
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func (m *mockAuditService) Log(ownerID, action, resourceType, resourceID, _ string, _ map[string]interface{}) {
	m.calls = append(m.calls, auditCall{ownerID, action, resourceType, resourceID})
}

// --- test helpers ---

const testOwner = "owner-1"

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectOwnerID(ownerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("ownerID", ownerID)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// doUpload posts a multipart form with the file under "file" when content
// is non-nil.
func doUpload(t *testing.T, r *gin.Engine, path string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if content != nil {
		part, err := w.CreateFormFile("file", "export.csv")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
