package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/services"
	"github.com/dobashik/cashflow-maker-web/internal/testutil"
)

func setupSecurityRouter(svc *mockSecurityService, audit *mockAuditService, ownerID string) *gin.Engine {
	h := NewSecurityHandler(svc, audit)
	r := gin.New()
	if ownerID != "" {
		r.Use(injectOwnerID(ownerID))
	}
	r.GET("/securities", h.ListSecurities)
	r.GET("/securities/:code", h.GetSecurity)
	r.POST("/securities/sectors/refresh", h.UpdateSectors)
	r.POST("/pipeline/securities/refresh-master", h.RefreshMetadata)
	return r
}

func TestListSecuritiesHandler(t *testing.T) {
	var gotSearch string
	svc := &mockSecurityService{
		listSecuritiesFn: func(_ context.Context, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
			gotSearch = search
			resp := pagination.NewPageResponse([]models.Security{{Code: "9432", Name: testutil.StringPtr("日本電信電話")}}, 1, 50, 1)
			return &resp, nil
		},
	}
	r := setupSecurityRouter(svc, &mockAuditService{}, testOwner)

	rec := doRequest(r, "GET", "/securities?search=9432", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSearch != "9432" {
		t.Errorf("expected search 9432, got %q", gotSearch)
	}
	data, ok := parseJSON(t, rec)["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Fatalf("expected 1 security, got %s", rec.Body.String())
	}
	if name := data[0].(map[string]interface{})["name"]; name != "日本電信電話" {
		t.Errorf("expected name 日本電信電話, got %v", name)
	}
}

func TestGetSecurityHandler(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r := setupSecurityRouter(&mockSecurityService{}, &mockAuditService{}, testOwner)

		rec := doRequest(r, "GET", "/securities/8058", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		sec, ok := parseJSON(t, rec)["security"].(map[string]interface{})
		if !ok || sec["code"] != "8058" {
			t.Errorf("expected security 8058, got %s", rec.Body.String())
		}
	})

	t.Run("not_found", func(t *testing.T) {
		svc := &mockSecurityService{
			getSecurityFn: func(context.Context, string) (*models.Security, error) {
				return nil, apperrors.ErrSecurityNotFound
			},
		}
		r := setupSecurityRouter(svc, &mockAuditService{}, testOwner)

		rec := doRequest(r, "GET", "/securities/0000", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SECURITY_NOT_FOUND")
	})
}

func TestUpdateSectorsHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockSecurityService{
			updateSectorsFn: func(_ context.Context, ownerID string) (*services.MetadataResult, error) {
				if ownerID != testOwner {
					t.Errorf("expected owner %q, got %q", testOwner, ownerID)
				}
				return &services.MetadataResult{Success: true, Updated: 3}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupSecurityRouter(svc, audit, testOwner)

		rec := doRequest(r, "POST", "/securities/sectors/refresh", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "UPDATE_SECTORS" {
			t.Errorf("expected UPDATE_SECTORS audit entry, got %v", audit.calls)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		r := setupSecurityRouter(&mockSecurityService{}, &mockAuditService{}, "")

		rec := doRequest(r, "POST", "/securities/sectors/refresh", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestRefreshMetadataHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupSecurityRouter(&mockSecurityService{}, audit, "")

		rec := doRequest(r, "POST", "/pipeline/securities/refresh-master", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.calls) != 1 || audit.calls[0].action != "REFRESH_MASTER_METADATA" {
			t.Errorf("expected REFRESH_MASTER_METADATA audit entry, got %v", audit.calls)
		}
	})

	t.Run("master_unavailable", func(t *testing.T) {
		svc := &mockSecurityService{
			refreshMetadataFn: func(context.Context) (*services.MetadataResult, error) {
				return nil, apperrors.Wrap(apperrors.ErrMasterDataLoad, context.DeadlineExceeded)
			},
		}
		r := setupSecurityRouter(svc, &mockAuditService{}, "")

		rec := doRequest(r, "POST", "/pipeline/securities/refresh-master", "")
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "MASTER_DATA_UNAVAILABLE")
		if result["success"] != false {
			t.Errorf("expected success false, got %v", result["success"])
		}
	})
}
