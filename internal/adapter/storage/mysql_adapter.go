package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

var ErrOptimisticLock = errors.New("optimistic lock conflict")

const insertBatchSize = 500

// Schema creates the tables used by MySQLAdapter.
const Schema = `
CREATE TABLE IF NOT EXISTS owners (
	id                BIGINT       NOT NULL PRIMARY KEY,
	name              VARCHAR(255) NOT NULL,
	corporation       BOOLEAN      NOT NULL DEFAULT FALSE,
	inventory_version INT          NOT NULL DEFAULT 0,
	updated_at        TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS inventory (
	owner_id     BIGINT  NOT NULL,
	item_id      BIGINT  NOT NULL,
	location_id  BIGINT  NOT NULL,
	type_id      INT     NOT NULL,
	flag_id      INT     NOT NULL,
	quantity     BIGINT  NOT NULL,
	raw_quantity INT     NOT NULL,
	singleton    BOOLEAN NOT NULL,
	position     INT     NOT NULL,
	PRIMARY KEY (owner_id, item_id),
	KEY inventory_position (owner_id, position)
);
CREATE TABLE IF NOT EXISTS items (
	type_id    INT          NOT NULL PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	group_name VARCHAR(255) NOT NULL,
	category   VARCHAR(255) NOT NULL,
	volume     DOUBLE       NOT NULL DEFAULT 0,
	base_price DOUBLE       NOT NULL DEFAULT 0
);`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate runs Schema one statement at a time.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) UpsertOwner(ctx context.Context, owner domain.OwnerContext) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO owners (id, name, corporation, inventory_version)
		VALUES (?, ?, ?, 0)
		ON DUPLICATE KEY UPDATE name = VALUES(name), corporation = VALUES(corporation)`,
		owner.ID, owner.Name, owner.Corporation,
	)
	if err != nil {
		return fmt.Errorf("upsert owner: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetOwner(ctx context.Context, ownerID int64) (*domain.Owner, error) {
	owner := domain.Owner{Show: true}
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, corporation, inventory_version
		FROM owners WHERE id = ?`, ownerID,
	).Scan(&owner.ID, &owner.Name, &owner.Corporation, &owner.InventoryVersion)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query owner: %w", err)
	}
	return &owner, nil
}

func (m *MySQLAdapter) ListInventory(ctx context.Context, ownerID int64) ([]domain.InventoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, location_id, type_id, flag_id, quantity, raw_quantity, singleton
		FROM inventory WHERE owner_id = ?
		ORDER BY position`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := rows.Scan(&rec.ItemID, &rec.LocationID, &rec.TypeID, &rec.FlagID,
			&rec.Quantity, &rec.RawQuantity, &rec.Singleton); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return records, nil
}

// SaveInventory replaces the owner's records in one transaction. It fails with
// ErrOptimisticLock when the stored version is not expectedVersion, and
// returns the new version otherwise.
func (m *MySQLAdapter) SaveInventory(ctx context.Context, ownerID int64, expectedVersion int, records []domain.InventoryRecord) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE owners
		SET inventory_version = inventory_version + 1
		WHERE id = ? AND inventory_version = ?`,
		ownerID, expectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("update owner version: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, ErrOptimisticLock
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory WHERE owner_id = ?`, ownerID); err != nil {
		return 0, fmt.Errorf("clear inventory: %w", err)
	}

	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		if err := insertInventory(ctx, tx, ownerID, start, records[start:end]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return expectedVersion + 1, nil
}

func insertInventory(ctx context.Context, tx *sql.Tx, ownerID int64, offset int, batch []domain.InventoryRecord) error {
	var query strings.Builder
	query.WriteString(`INSERT INTO inventory
		(owner_id, item_id, location_id, type_id, flag_id, quantity, raw_quantity, singleton, position)
		VALUES `)
	args := make([]any, 0, len(batch)*9)
	for i, rec := range batch {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, ownerID, rec.ItemID, rec.LocationID, rec.TypeID, rec.FlagID,
			rec.Quantity, rec.RawQuantity, rec.Singleton, offset+i)
	}
	if _, err := tx.ExecContext(ctx, query.String(), args...); err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetItem(ctx context.Context, typeID int32) (*domain.Item, error) {
	var item domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT type_id, name, group_name, category, volume, base_price
		FROM items WHERE type_id = ?`, typeID,
	).Scan(&item.TypeID, &item.Name, &item.Group, &item.Category, &item.Volume, &item.BasePrice)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

// UpsertItems loads catalog entries into the items table.
func (m *MySQLAdapter) UpsertItems(ctx context.Context, items []domain.Item) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (type_id, name, group_name, category, volume, base_price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), group_name = VALUES(group_name),
			category = VALUES(category), volume = VALUES(volume), base_price = VALUES(base_price)`)
	if err != nil {
		return fmt.Errorf("prepare item upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.TypeID, item.Name, item.Group, item.Category, item.Volume, item.BasePrice); err != nil {
			return fmt.Errorf("upsert item %d: %w", item.TypeID, err)
		}
	}
	return tx.Commit()
}
