package backoffice

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

const (
	testLicenseID = "9a1f6c3e-0b2d-4e8a-9c5f-7d4b1e0a8c2d"

	statusAvailableID = "11111111-1111-1111-1111-111111111111"
	statusActivatedID = "33333333-3333-3333-3333-333333333333"
	typeAnnualID      = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

// licenseSQLCols are the columns returned by license SELECT queries.
var licenseSQLCols = []string{
	"id", "unique_id", "external_name", "type_id", "status_id", "server_id",
	"requested_server_id", "activation_date", "expiration_date",
	"created_at", "updated_at",
}

var statusSQLCols = []string{"id", "status", "description"}
var typeSQLCols = []string{"id", "name", "description"}

func sampleLicenseRow(statusID string) *sqlmock.Rows {
	return sqlmock.NewRows(licenseSQLCols).
		AddRow(testLicenseID, "LIC-0001", nil, typeAnnualID, statusID,
			nil, nil, nil, nil, time.Now(), time.Now())
}

func newLicenseRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	mock, db := newMockDB(t)

	h := NewLicenseHandlers(testConfig(), db)

	r := gin.New()
	r.GET("/licenses", h.ListLicensesHandler())
	r.GET("/licenses/:id", h.GetLicenseHandler())
	r.POST("/licenses", h.CreateLicenseHandler())
	r.PUT("/licenses/:id", h.UpdateLicenseHandler())
	r.DELETE("/licenses/:id", h.DeleteLicenseHandler())
	r.POST("/licenses/:id/request-activation", h.RequestActivationHandler())
	r.POST("/licenses/:id/activate", h.ActivateHandler())
	r.POST("/licenses/:id/deactivate", h.DeactivateHandler())
	r.POST("/licenses/:id/retire", h.RetireHandler())
	r.GET("/licenses/:id/audits", h.ListLicenseAuditsHandler())
	return mock, r
}

func TestCreateLicenseHandler_DefaultsToAvailable(t *testing.T) {
	mock, r := newLicenseRouter(t)

	mock.ExpectQuery("SELECT .* FROM license_types WHERE id").
		WithArgs(typeAnnualID).
		WillReturnRows(sqlmock.NewRows(typeSQLCols).AddRow(typeAnnualID, "Annual", nil))
	mock.ExpectQuery("SELECT .* FROM license_statuses WHERE status").
		WillReturnRows(sqlmock.NewRows(statusSQLCols).AddRow(statusAvailableID, "Available", nil))
	mock.ExpectExec("INSERT INTO licenses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO license_audits").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := httptest.NewRecorder()
	body := jsonBody(map[string]string{"typeId": typeAnnualID})
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	if resp["statusId"] != statusAvailableID {
		t.Errorf("statusId = %v, want the Available status", resp["statusId"])
	}
	if resp["uniqueId"] == "" || resp["uniqueId"] == nil {
		t.Error("expected a generated uniqueId")
	}
}

func TestCreateLicenseHandler_UnknownType(t *testing.T) {
	mock, r := newLicenseRouter(t)

	mock.ExpectQuery("SELECT .* FROM license_types WHERE id").
		WithArgs(typeAnnualID).
		WillReturnRows(sqlmock.NewRows(typeSQLCols))

	w := httptest.NewRecorder()
	body := jsonBody(map[string]string{"typeId": typeAnnualID})
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateLicenseHandler_MissingType(t *testing.T) {
	_, r := newLicenseRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses", jsonBody(map[string]string{})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRequestActivationHandler_LicenseNotFound(t *testing.T) {
	mock, r := newLicenseRouter(t)

	mock.ExpectQuery("SELECT .* FROM licenses WHERE id").
		WithArgs(testLicenseID).
		WillReturnRows(sqlmock.NewRows(licenseSQLCols))

	w := httptest.NewRecorder()
	body := jsonBody(map[string]string{"serverId": "2e6a8b0c-4d1f-4a3e-8b5c-9f7e1d0a2c4b"})
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses/"+testLicenseID+"/request-activation", body))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRequestActivationHandler_NoServerReference(t *testing.T) {
	_, r := newLicenseRouter(t)

	w := httptest.NewRecorder()
	body := jsonBody(map[string]string{})
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses/"+testLicenseID+"/request-activation", body))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRequestActivationHandler_FromActivatedConflicts(t *testing.T) {
	mock, r := newLicenseRouter(t)

	mock.ExpectQuery("SELECT .* FROM licenses WHERE id").
		WithArgs(testLicenseID).
		WillReturnRows(sampleLicenseRow(statusActivatedID))
	mock.ExpectQuery("SELECT .* FROM license_statuses WHERE id").
		WithArgs(statusActivatedID).
		WillReturnRows(sqlmock.NewRows(statusSQLCols).AddRow(statusActivatedID, "Activated", nil))

	w := httptest.NewRecorder()
	body := jsonBody(map[string]string{"serverId": "2e6a8b0c-4d1f-4a3e-8b5c-9f7e1d0a2c4b"})
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses/"+testLicenseID+"/request-activation", body))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestActivateHandler_RefusedWhenNotRequested(t *testing.T) {
	mock, r := newLicenseRouter(t)

	mock.ExpectQuery("SELECT .* FROM licenses WHERE id").
		WithArgs(testLicenseID).
		WillReturnRows(sampleLicenseRow(statusAvailableID))
	mock.ExpectQuery("SELECT .* FROM license_statuses WHERE id").
		WithArgs(statusAvailableID).
		WillReturnRows(sqlmock.NewRows(statusSQLCols).AddRow(statusAvailableID, "Available", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/licenses/"+testLicenseID+"/activate", jsonBody(map[string]string{})))

	// A refused activation is a result, not an error status.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	if resp["ok"] != false {
		t.Errorf("ok = %v, want false", resp["ok"])
	}
	if resp["reason"] == "" || resp["reason"] == nil {
		t.Error("expected a refusal reason")
	}
}

func TestListLicenseAuditsHandler_NewestFirst(t *testing.T) {
	mock, r := newLicenseRouter(t)

	auditCols := []string{
		"audit_id", "license_id_ref", "unique_id", "external_name",
		"license_status_id", "type_id", "comment", "server_id", "updated_by",
		"created_at",
	}

	mock.ExpectQuery("SELECT .* FROM licenses WHERE id").
		WithArgs(testLicenseID).
		WillReturnRows(sampleLicenseRow(statusAvailableID))
	mock.ExpectQuery("SELECT .* FROM license_audits WHERE license_id_ref").
		WithArgs(testLicenseID).
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow("aud-2", testLicenseID, "LIC-0001", nil, statusAvailableID,
				typeAnnualID, nil, nil, nil, time.Now()).
			AddRow("aud-1", testLicenseID, "LIC-0001", nil, statusActivatedID,
				typeAnnualID, nil, nil, nil, time.Now().Add(-time.Hour)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/licenses/"+testLicenseID+"/audits", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}
