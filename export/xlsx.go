package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/slidedeck/parser"
)

const (
	sheetSlides   = "Slides"
	sheetImages   = "Images"
	sheetMetadata = "Metadata"
)

var (
	slideHeaders = []interface{}{"Slide", "Title", "Content", "Text Elements", "Images", "Animations",
		"Notes", "Duration (ms)", "Transition", "Background", "Error"}
	imageHeaders = []interface{}{"Slide", "ID", "Source", "MIME Type", "X", "Y", "Width", "Height",
		"Pixel Width", "Pixel Height"}
	metadataHeaders = []interface{}{"Property", "Value"}
)

// WriteXLSX writes a workbook with one row per slide, one row per image and
// a property sheet.
func WriteXLSX(w io.Writer, res *parser.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSlides); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for _, name := range []string{sheetImages, sheetMetadata} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	slideRows := make([][]interface{}, 0, len(res.Slides))
	var imageRows [][]interface{}
	for _, s := range res.Slides {
		slideRows = append(slideRows, []interface{}{
			s.SlideNumber, s.Title, s.Content, len(s.TextElements), len(s.ImageElements),
			len(s.Animations), s.Notes, s.DurationMs, s.Transition, background(s.Background), s.Error,
		})
		for _, img := range s.ImageElements {
			imageRows = append(imageRows, []interface{}{
				s.SlideNumber, img.RelID, img.Path, img.MIMEType,
				img.Position.X, img.Position.Y, img.Position.Width, img.Position.Height,
				img.PixelWidth, img.PixelHeight,
			})
		}
	}
	var metaRows [][]interface{}
	for _, kv := range metadataRows(res) {
		metaRows = append(metaRows, []interface{}{kv[0], kv[1]})
	}

	sheets := []struct {
		name   string
		header []interface{}
		rows   [][]interface{}
	}{
		{sheetSlides, slideHeaders, slideRows},
		{sheetImages, imageHeaders, imageRows},
		{sheetMetadata, metadataHeaders, metaRows},
	}
	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, header, sh.header, sh.rows); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetSlides, "B", "C", 40); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   deckTitle(res),
		Creator: res.Metadata.Author,
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, style int, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func background(bg parser.Background) string {
	switch bg.Type {
	case parser.BackgroundImage:
		return "image " + bg.ImagePath
	case parser.BackgroundNone:
		return "none"
	default:
		return bg.Type + " " + bg.Color
	}
}
