package project

import (
	"context"
	"fmt"
	"time"

	"github.com/nofuss/sitecoach/internal/errs"
)

// SetStatus moves a project's deployment status machine:
// not_deployed → deploying → deployed | failed, with failed → deploying
// retries and deployed → deploying redeploys.
//
// The url argument is persisted only when the new status is deployed and is
// ignored otherwise. Any stored URL is cleared on a non-deployed status so
// that a URL is never visible without a live deployment behind it.
func (s *Store) SetStatus(ctx context.Context, id, owner string, status DeploymentStatus, url string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidStatus, status)
	}
	p, err := s.Get(ctx, id, owner)
	if err != nil {
		return err
	}

	var storedURL any
	if status == StatusDeployed && url != "" {
		storedURL = url
	} else if status == StatusDeployed {
		// Redeploy without a new URL keeps the existing one.
		if p.DeploymentURL != "" {
			storedURL = p.DeploymentURL
		}
	}

	res, err := s.ds.DB().ExecContext(ctx,
		`UPDATE projects SET deployment_status = ?, deployment_url = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		string(status), storedURL, time.Now().UnixMilli(), id, owner)
	if err != nil {
		return fmt.Errorf("failed to update deployment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrNotFound
	}

	meta := map[string]any{"status": string(status)}
	if storedURL != nil {
		meta["deployment_url"] = storedURL
	}
	s.LogHistory(ctx, id, ActionDeploymentStatusChange, meta)
	return nil
}

// GetStatus returns the current deployment status and URL. Projects that
// never deployed report not_deployed.
func (s *Store) GetStatus(ctx context.Context, id, owner string) (DeploymentStatus, string, error) {
	p, err := s.Get(ctx, id, owner)
	if err != nil {
		return "", "", err
	}
	status := p.DeploymentStatus
	if status == "" {
		status = StatusNotDeployed
	}
	return status, p.DeploymentURL, nil
}
