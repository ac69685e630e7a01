package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/license-office/license-office/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var licenseCols = []string{
	"id", "unique_id", "external_name", "type_id", "status_id", "server_id",
	"requested_server_id", "activation_date", "expiration_date", "created_at", "updated_at",
}

var serverCols = []string{
	"id", "name", "description", "fingerprint", "customer_id",
	"is_active", "created_at", "updated_at",
}

var statusCols = []string{"id", "status", "description"}
var typeCols = []string{"id", "name", "description"}

func newLifecycle(t *testing.T) (*LicenseLifecycle, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewLicenseLifecycle(
		repositories.NewLicenseRepository(sqlxDB),
		repositories.NewServerRepository(sqlxDB),
		repositories.NewLookupRepository(sqlxDB),
	), mock
}

func licenseRow(statusID string, requestedServerID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(licenseCols).
		AddRow("lic-1", "uid-1", nil, "type-annual", statusID, nil,
			requestedServerID, nil, nil, time.Now(), time.Now())
}

func serverRow(id string, fingerprint []byte, customerID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(serverCols).
		AddRow(id, "prod-east", nil, fingerprint, customerID, true, time.Now(), time.Now())
}

func statusRow(id, name string) *sqlmock.Rows {
	return sqlmock.NewRows(statusCols).AddRow(id, name, nil)
}

func expectStatusByID(mock sqlmock.Sqlmock, id, name string) {
	mock.ExpectQuery("SELECT.*FROM license_statuses WHERE id").
		WithArgs(id).
		WillReturnRows(statusRow(id, name))
}

func expectStatusByName(mock sqlmock.Sqlmock, id, name string) {
	mock.ExpectQuery("SELECT.*FROM license_statuses WHERE status").
		WithArgs(name).
		WillReturnRows(statusRow(id, name))
}

func expectTransitionTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE licenses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO license_audits").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

// ---------------------------------------------------------------------------
// RequestActivation
// ---------------------------------------------------------------------------

func TestRequestActivation_ByServerID(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WithArgs("lic-1").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WithArgs("srv-1").
		WillReturnRows(serverRow("srv-1", []byte{0x01}, "cust-1"))
	expectStatusByName(mock, "st-req", "Activation Requested")
	expectTransitionTx(mock)

	license, err := svc.RequestActivation(context.Background(), "lic-1",
		ServerRef{ID: "srv-1"}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, license.RequestedServerID)
	assert.Equal(t, "srv-1", *license.RequestedServerID)
	assert.Equal(t, "st-req", license.StatusID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestActivation_ByFingerprint(t *testing.T) {
	svc, mock := newLifecycle(t)
	fp := []byte{0xde, 0xad}
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")
	mock.ExpectQuery("SELECT.*FROM servers WHERE fingerprint").
		WithArgs(fp).
		WillReturnRows(serverRow("srv-2", fp, "cust-1"))
	expectStatusByName(mock, "st-req", "Activation Requested")
	expectTransitionTx(mock)

	license, err := svc.RequestActivation(context.Background(), "lic-1",
		ServerRef{Fingerprint: fp}, nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, license.RequestedServerID)
	assert.Equal(t, "srv-2", *license.RequestedServerID)
}

func TestRequestActivation_CustomerScopeMismatch(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(serverRow("srv-1", []byte{0x01}, "cust-other"))

	customerID := "cust-1"
	_, err := svc.RequestActivation(context.Background(), "lic-1",
		ServerRef{ID: "srv-1"}, &customerID, nil, nil)
	assert.ErrorIs(t, err, ErrServerNotOwned)
}

func TestRequestActivation_ServerMissing(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(sqlmock.NewRows(serverCols))

	_, err := svc.RequestActivation(context.Background(), "lic-1",
		ServerRef{ID: "srv-gone"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrServerNotFound)
}

func TestRequestActivation_LicenseMissing(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(sqlmock.NewRows(licenseCols))

	_, err := svc.RequestActivation(context.Background(), "lic-gone",
		ServerRef{ID: "srv-1"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrLicenseNotFound)
}

func TestRequestActivation_FromActivatedRejected(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-act", nil))
	expectStatusByID(mock, "st-act", "Activated")

	_, err := svc.RequestActivation(context.Background(), "lic-1",
		ServerRef{ID: "srv-1"}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// ---------------------------------------------------------------------------
// Activate
// ---------------------------------------------------------------------------

func TestActivate_AnnualSetsExpiration(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-req", "srv-1"))
	expectStatusByID(mock, "st-req", "Activation Requested")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WithArgs("srv-1").
		WillReturnRows(serverRow("srv-1", []byte{0x01}, "cust-1"))
	mock.ExpectQuery("SELECT.*FROM license_types WHERE id").
		WithArgs("type-annual").
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow("type-annual", "Annual", nil))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\)`).
		WithArgs("lic-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	expectStatusByName(mock, "st-act", "Activated")
	expectTransitionTx(mock)

	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	require.True(t, result.OK, "activation refused: %s", result.Reason)

	license := result.License
	require.NotNil(t, license.ActivationDate)
	require.NotNil(t, license.ExpirationDate)
	require.NotNil(t, license.ServerID)
	assert.Equal(t, "srv-1", *license.ServerID)
	assert.Nil(t, license.RequestedServerID)

	wantExpiration := license.ActivationDate.AddDate(3, 0, 0)
	assert.WithinDuration(t, wantExpiration, *license.ExpirationDate, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_PerpetualNeverExpires(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-req", "srv-1"))
	expectStatusByID(mock, "st-req", "Activation Requested")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(serverRow("srv-1", []byte{0x01}, "cust-1"))
	mock.ExpectQuery("SELECT.*FROM license_types WHERE id").
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow("type-annual", "Perpetual", nil))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(10))
	expectStatusByName(mock, "st-act", "Activated")
	expectTransitionTx(mock)

	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.NotNil(t, result.License.ActivationDate)
	assert.Nil(t, result.License.ExpirationDate)
}

func TestActivate_RefusedWithoutContractedDuration(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-req", "srv-1"))
	expectStatusByID(mock, "st-req", "Activation Requested")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(serverRow("srv-1", []byte{0x01}, "cust-1"))
	mock.ExpectQuery("SELECT.*FROM license_types WHERE id").
		WillReturnRows(sqlmock.NewRows(typeCols).AddRow("type-annual", "Annual", nil))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(duration\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	// An Annual license with no purchase order rows would otherwise activate
	// with no expiration date, behaving like a perpetual license.
	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "contracted duration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivate_RefusedWhenNotRequested(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")

	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "Available")
}

func TestActivate_RefusedWhenNominatedServerGone(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-req", "srv-1"))
	expectStatusByID(mock, "st-req", "Activation Requested")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(sqlmock.NewRows(serverCols))

	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "no longer exists")
}

func TestActivate_RefusedWhenFingerprintMissing(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-req", "srv-1"))
	expectStatusByID(mock, "st-req", "Activation Requested")
	mock.ExpectQuery("SELECT.*FROM servers WHERE id").
		WillReturnRows(serverRow("srv-1", nil, "cust-1"))

	result, err := svc.Activate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "fingerprint")
}

// ---------------------------------------------------------------------------
// Deactivate / Retire
// ---------------------------------------------------------------------------

func TestDeactivate_ClearsActivationState(t *testing.T) {
	svc, mock := newLifecycle(t)
	activated := time.Now().AddDate(0, -6, 0)
	expiration := activated.AddDate(3, 0, 0)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(sqlmock.NewRows(licenseCols).
			AddRow("lic-1", "uid-1", nil, "type-annual", "st-act", "srv-1",
				nil, activated, expiration, time.Now(), time.Now()))
	expectStatusByID(mock, "st-act", "Activated")
	expectStatusByName(mock, "st-avail", "Available")
	expectTransitionTx(mock)

	license, err := svc.Deactivate(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "st-avail", license.StatusID)
	assert.Nil(t, license.ServerID)
	assert.Nil(t, license.RequestedServerID)
	assert.Nil(t, license.ActivationDate)
	assert.Nil(t, license.ExpirationDate)
}

func TestDeactivate_FromAvailableRejected(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-avail", nil))
	expectStatusByID(mock, "st-avail", "Available")

	_, err := svc.Deactivate(context.Background(), "lic-1", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRetire_FromActivated(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-act", nil))
	expectStatusByID(mock, "st-act", "Activated")
	expectStatusByName(mock, "st-deact", "Deactivated")
	expectTransitionTx(mock)

	license, err := svc.Retire(context.Background(), "lic-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "st-deact", license.StatusID)
}

func TestRetire_AlreadyRetiredRejected(t *testing.T) {
	svc, mock := newLifecycle(t)
	mock.ExpectQuery("SELECT.*FROM licenses WHERE id").
		WillReturnRows(licenseRow("st-deact", nil))
	expectStatusByID(mock, "st-deact", "Deactivated")

	_, err := svc.Retire(context.Background(), "lic-1", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
