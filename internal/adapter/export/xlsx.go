// Package export renders asset forests as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/asset-vault/internal/core/domain"
)

const (
	SheetName   = "Assets"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{"Item ID", "Name", "Group", "Category", "Quantity", "Flag", "Location", "Container", "Owner"}

// WriteAssetsXLSX writes one row per asset, parents before children.
func WriteAssetsXLSX(w io.Writer, forest domain.Forest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	row := 2
	var writeErr error
	forest.Walk(func(a *domain.Asset) bool {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			writeErr = err
			return false
		}
		values := []any{
			a.Record.ItemID,
			a.Item.Name,
			a.Item.Group,
			a.Item.Category,
			a.Record.Quantity,
			domain.FlagName(a.Record.FlagID),
			a.LocationID,
			a.ContainerPath(),
			a.OwnerName,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			writeErr = fmt.Errorf("write row %d: %w", row, err)
			return false
		}
		row++
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
