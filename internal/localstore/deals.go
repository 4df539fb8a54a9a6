package localstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// ListDeals returns all deals, open first, newest open date first.
func (db *DB) ListDeals(ctx context.Context) ([]model.Deal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, customer, bike, technician, status, open_date, value, notes, close_date, closed_outcome
		FROM deals ORDER BY close_date = '' DESC, open_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var d model.Deal
		err := rows.Scan(&d.ID, &d.Customer, &d.Bike, &d.Technician, &d.Status,
			&d.OpenDate, &d.Value, &d.Notes, &d.CloseDate, &d.ClosedOutcome)
		if err != nil {
			if db.logger != nil {
				db.logger.Warn().Err(err).Msg("skipping malformed deal row")
			}
			continue
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// CreateDeal stores a deal under a freshly assigned id.
func (db *DB) CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error) {
	d.ID = uuid.NewString()
	_, err := db.ExecContext(ctx, `
		INSERT INTO deals (id, customer, bike, technician, status, open_date, value, notes, close_date, closed_outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Customer, d.Bike, d.Technician, d.Status, d.OpenDate, d.Value, d.Notes, d.CloseDate, d.ClosedOutcome,
	)
	if err != nil {
		return model.Deal{}, fmt.Errorf("create deal: %w", err)
	}
	return d, nil
}

// UpdateDeal replaces the deal with the given id.
func (db *DB) UpdateDeal(ctx context.Context, id string, d model.Deal) (model.Deal, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE deals
		SET customer = ?, bike = ?, technician = ?, status = ?, open_date = ?, value = ?,
		    notes = ?, close_date = ?, closed_outcome = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		d.Customer, d.Bike, d.Technician, d.Status, d.OpenDate, d.Value, d.Notes, d.CloseDate, d.ClosedOutcome, id,
	)
	if err != nil {
		return model.Deal{}, fmt.Errorf("update deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Deal{}, fmt.Errorf("deal %s not found", id)
	}
	d.ID = id
	return d, nil
}

// DeleteDeal removes the deal with the given id.
func (db *DB) DeleteDeal(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM deals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s not found", id)
	}
	return nil
}
