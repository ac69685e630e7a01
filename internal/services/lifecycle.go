// Package services implements higher-level business logic that coordinates
// across multiple repositories. The license lifecycle service, for example,
// moves a license between its states, computes the expiration date from the
// contracted duration, and appends the audit row for every transition in the
// same transaction as the state change.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/license-office/license-office/internal/db/models"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/telemetry"
)

var (
	// ErrLicenseNotFound is returned when the license row does not exist
	ErrLicenseNotFound = errors.New("license not found")
	// ErrServerNotFound is returned when the referenced server does not exist
	ErrServerNotFound = errors.New("server not found")
	// ErrServerNotOwned is returned when a customer-scoped request nominates
	// a server belonging to a different customer
	ErrServerNotOwned = errors.New("server does not belong to the customer")
	// ErrInvalidTransition is returned when the license's current state does
	// not permit the requested transition
	ErrInvalidTransition = errors.New("license state does not permit this transition")
)

// ServerRef identifies a server by row ID or by fingerprint. Exactly one of
// the two should be set; ID wins when both are.
type ServerRef struct {
	ID          string
	Fingerprint []byte
}

// ActivationResult reports the outcome of an activation attempt. A refused
// activation is a result, not an error: the caller gets OK=false and a reason
// suitable for the client.
type ActivationResult struct {
	OK      bool            `json:"ok"`
	Reason  string          `json:"reason,omitempty"`
	License *models.License `json:"license,omitempty"`
}

// LicenseLifecycle moves licenses through their states
type LicenseLifecycle struct {
	licenseRepo *repositories.LicenseRepository
	serverRepo  *repositories.ServerRepository
	lookupRepo  *repositories.LookupRepository
}

// NewLicenseLifecycle creates a new LicenseLifecycle service
func NewLicenseLifecycle(licenseRepo *repositories.LicenseRepository, serverRepo *repositories.ServerRepository, lookupRepo *repositories.LookupRepository) *LicenseLifecycle {
	return &LicenseLifecycle{
		licenseRepo: licenseRepo,
		serverRepo:  serverRepo,
		lookupRepo:  lookupRepo,
	}
}

// RequestActivation nominates a server for a license. The server may be
// referenced by ID or by fingerprint. When customerID is non-nil the server
// must belong to that customer. The license moves to Activation Requested;
// re-requesting with a different server replaces the nomination.
func (s *LicenseLifecycle) RequestActivation(ctx context.Context, licenseID string, ref ServerRef, customerID *string, updatedBy, comment *string) (*models.License, error) {
	license, err := s.licenseRepo.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	currentStatus, err := s.statusName(ctx, license.StatusID)
	if err != nil {
		return nil, err
	}
	if currentStatus != models.StatusAvailable && currentStatus != models.StatusActivationRequested {
		return nil, fmt.Errorf("%w: cannot request activation from %q", ErrInvalidTransition, currentStatus)
	}

	server, err := s.resolveServer(ctx, ref)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}
	if customerID != nil {
		if server.CustomerID == nil || *server.CustomerID != *customerID {
			return nil, ErrServerNotOwned
		}
	}

	requested, err := s.statusID(ctx, models.StatusActivationRequested)
	if err != nil {
		return nil, err
	}

	license.StatusID = requested
	license.RequestedServerID = &server.ID

	if err := s.transition(ctx, license, models.StatusActivationRequested, &server.ID, updatedBy, comment); err != nil {
		return nil, err
	}

	return license, nil
}

// Activate completes a previously requested activation. Business refusals
// (no nominated server, nominated server gone, fingerprint missing, no
// contracted duration) come back as an ActivationResult with OK=false; only
// infrastructure problems return an error. On success the expiration date is
// the activation date plus the total contracted duration in years, except
// for perpetual licenses which never expire.
func (s *LicenseLifecycle) Activate(ctx context.Context, licenseID string, updatedBy, comment *string) (*ActivationResult, error) {
	license, err := s.licenseRepo.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	currentStatus, err := s.statusName(ctx, license.StatusID)
	if err != nil {
		return nil, err
	}
	if currentStatus != models.StatusActivationRequested {
		return &ActivationResult{OK: false, Reason: fmt.Sprintf("license is %s, not awaiting activation", currentStatus)}, nil
	}

	if license.RequestedServerID == nil {
		return &ActivationResult{OK: false, Reason: "no server has been nominated for this license"}, nil
	}

	server, err := s.serverRepo.GetByID(ctx, *license.RequestedServerID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return &ActivationResult{OK: false, Reason: "the nominated server no longer exists"}, nil
	}
	if len(server.Fingerprint) == 0 {
		return &ActivationResult{OK: false, Reason: "the nominated server has no fingerprint"}, nil
	}

	licenseType, err := s.lookupRepo.GetTypeByID(ctx, license.TypeID)
	if err != nil {
		return nil, err
	}
	if licenseType == nil {
		return nil, fmt.Errorf("license type %s not found", license.TypeID)
	}

	totalYears, err := s.licenseRepo.TotalDuration(ctx, license.ID)
	if err != nil {
		return nil, err
	}
	// A non-perpetual license with no contracted duration would activate
	// without an expiration date, which is indistinguishable from perpetual.
	if licenseType.Name != models.LicenseTypePerpetual && totalYears <= 0 {
		return &ActivationResult{OK: false, Reason: "license has no contracted duration"}, nil
	}

	activated, err := s.statusID(ctx, models.StatusActivated)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	license.StatusID = activated
	license.ServerID = &server.ID
	license.RequestedServerID = nil
	license.ActivationDate = &now
	if licenseType.Name == models.LicenseTypePerpetual {
		license.ExpirationDate = nil
	} else {
		expiration := now.AddDate(totalYears, 0, 0)
		license.ExpirationDate = &expiration
	}

	if err := s.transition(ctx, license, models.StatusActivated, &server.ID, updatedBy, comment); err != nil {
		return nil, err
	}

	return &ActivationResult{OK: true, License: license}, nil
}

// Deactivate releases a license back to Available, clearing the activation
// and expiration dates and both server references. Permitted from Activated
// and from Activation Requested (cancelling a pending nomination).
func (s *LicenseLifecycle) Deactivate(ctx context.Context, licenseID string, updatedBy, comment *string) (*models.License, error) {
	license, err := s.licenseRepo.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	currentStatus, err := s.statusName(ctx, license.StatusID)
	if err != nil {
		return nil, err
	}
	if currentStatus != models.StatusActivated && currentStatus != models.StatusActivationRequested {
		return nil, fmt.Errorf("%w: cannot deactivate from %q", ErrInvalidTransition, currentStatus)
	}

	available, err := s.statusID(ctx, models.StatusAvailable)
	if err != nil {
		return nil, err
	}

	license.StatusID = available
	license.ServerID = nil
	license.RequestedServerID = nil
	license.ActivationDate = nil
	license.ExpirationDate = nil

	if err := s.transition(ctx, license, models.StatusAvailable, nil, updatedBy, comment); err != nil {
		return nil, err
	}

	return license, nil
}

// Retire moves a license to the terminal Deactivated status. A retired
// license can no longer be activated.
func (s *LicenseLifecycle) Retire(ctx context.Context, licenseID string, updatedBy, comment *string) (*models.License, error) {
	license, err := s.licenseRepo.GetByID(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}

	currentStatus, err := s.statusName(ctx, license.StatusID)
	if err != nil {
		return nil, err
	}
	if currentStatus == models.StatusDeactivated {
		return nil, fmt.Errorf("%w: license is already retired", ErrInvalidTransition)
	}

	deactivated, err := s.statusID(ctx, models.StatusDeactivated)
	if err != nil {
		return nil, err
	}

	license.StatusID = deactivated
	license.RequestedServerID = nil

	if err := s.transition(ctx, license, models.StatusDeactivated, license.ServerID, updatedBy, comment); err != nil {
		return nil, err
	}

	return license, nil
}

// resolveServer looks a server up by ID when set, else by fingerprint
func (s *LicenseLifecycle) resolveServer(ctx context.Context, ref ServerRef) (*models.Server, error) {
	if ref.ID != "" {
		return s.serverRepo.GetByID(ctx, ref.ID)
	}
	if len(ref.Fingerprint) > 0 {
		return s.serverRepo.GetByFingerprint(ctx, ref.Fingerprint)
	}
	return nil, nil
}

// transition persists the license together with its audit row and bumps the
// transitions metric
func (s *LicenseLifecycle) transition(ctx context.Context, license *models.License, targetStatus string, serverID *string, updatedBy, comment *string) error {
	audit := &models.LicenseAudit{
		LicenseIDRef:    license.ID,
		UniqueID:        &license.UniqueID,
		ExternalName:    license.ExternalName,
		LicenseStatusID: license.StatusID,
		TypeID:          license.TypeID,
		Comment:         comment,
		ServerID:        serverID,
		UpdatedBy:       updatedBy,
	}

	if err := s.licenseRepo.UpdateWithAudit(ctx, license, audit); err != nil {
		return err
	}

	telemetry.LicenseTransitionsTotal.WithLabelValues(targetStatus).Inc()
	return nil
}

// statusName resolves a status row ID to its status name
func (s *LicenseLifecycle) statusName(ctx context.Context, statusID string) (string, error) {
	status, err := s.lookupRepo.GetStatusByID(ctx, statusID)
	if err != nil {
		return "", err
	}
	if status == nil {
		return "", fmt.Errorf("license status %s not found", statusID)
	}
	return status.Status, nil
}

// statusID resolves a seeded status name to its row ID
func (s *LicenseLifecycle) statusID(ctx context.Context, name string) (string, error) {
	status, err := s.lookupRepo.GetStatusByName(ctx, name)
	if err != nil {
		return "", err
	}
	if status == nil {
		return "", fmt.Errorf("license status %q not seeded", name)
	}
	return status.ID, nil
}
