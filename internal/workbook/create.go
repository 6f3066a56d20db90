package workbook

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Iron-Ham/kanvas/internal/errors"
	"github.com/xuri/excelize/v2"
)

// Create writes a new case workbook at path. With a template path the
// template file is copied verbatim; otherwise a blank workbook is built from
// sheets, or DefaultSheets when sheets is empty. Create refuses to replace
// an existing file.
func Create(path, templatePath string, sheets []SheetSpec) error {
	if _, err := os.Stat(path); err == nil {
		return errors.NewCaseError("create", fs.ErrExist).WithPath(path)
	}

	if templatePath != "" {
		if err := copyTemplate(templatePath, path); err != nil {
			return errors.NewCaseError("create", err).WithPath(path).
				WithMessage(fmt.Sprintf("failed to copy template %s", templatePath))
		}
		return nil
	}

	if len(sheets) == 0 {
		sheets = DefaultSheets
	}
	if err := createBlank(path, sheets); err != nil {
		return errors.NewCaseError("create", err).WithPath(path)
	}
	return nil
}

func copyTemplate(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func createBlank(path string, sheets []SheetSpec) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with a single "Sheet1".
	first := f.GetSheetName(0)
	for i, spec := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, spec.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(spec.Name); err != nil {
			return err
		}

		if len(spec.Headers) == 0 {
			continue
		}
		cells := toCells(spec.Headers)
		if err := f.SetSheetRow(spec.Name, "A1", &cells); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	return f.SaveAs(path)
}
