package certificates

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Canvas dimensions in pixels.
const (
	canvasWidth  = 1400
	canvasHeight = 990

	headerHeight = 120
	titleWrapCols = 50
	qrSize        = 120
)

// Wine and gold palette.
var (
	colWine     = rgb{139, 0, 0}
	colWineDark = rgb{120, 0, 0}
	colGold     = rgb{212, 175, 55}
	colGoldDark = rgb{180, 150, 40}
	colCream    = rgb{240, 235, 225}
	colText     = rgb{20, 20, 20}
	colTextSoft = rgb{60, 60, 60}
)

type rgb struct{ r, g, b int }

// RenderInput carries everything the renderer needs. The renderer performs no
// database or filesystem writes; it is a pure transform from input to buffers.
type RenderInput struct {
	ParticipantName string
	EventTitle      string
	StartDate       *time.Time
	EndDate         *time.Time
	Hours           *float64
	Organizer       string
	Location        string
	Institution     string
	VerifyURL       string
}

// RenderResult holds the finished artifacts.
type RenderResult struct {
	PNG []byte
	PDF []byte
}

// Renderer composes certificate images and wraps them into A4 PDF documents.
type Renderer struct {
	Fonts *FontSet
}

func NewRenderer(fontDir string) *Renderer {
	return &Renderer{Fonts: LoadFonts(fontDir)}
}

// Render produces the raster certificate and the one-page PDF embedding it.
func (r *Renderer) Render(in RenderInput) (*RenderResult, error) {
	img, err := r.renderPNG(in)
	if err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	doc, err := renderPDF(img)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &RenderResult{PNG: img, PDF: doc}, nil
}

func (r *Renderer) renderPNG(in RenderInput) ([]byte, error) {
	dc := gg.NewContext(canvasWidth, canvasHeight)

	setRGB(dc, colCream)
	dc.Clear()

	drawBorders(dc)
	drawHeader(dc)
	drawCornerOrnaments(dc)
	drawSeal(dc, float64(canvasWidth)/2, float64(headerHeight)+80)

	// Headline with a subtle shadow for depth.
	titleY := float64(headerHeight) + 160
	dc.SetFontFace(r.Fonts.Display)
	setRGB(dc, colWineDark)
	dc.DrawStringAnchored("CERTIFICADO", canvasWidth/2+3, titleY+3, 0.5, 0.5)
	setRGB(dc, colWine)
	dc.DrawStringAnchored("CERTIFICADO", canvasWidth/2, titleY, 0.5, 0.5)

	// Participant name, uppercase with a wine outline.
	nameY := canvasHeight * 0.45
	dc.SetFontFace(r.Fonts.Name)
	drawOutlinedString(dc, strings.ToUpper(in.ParticipantName), canvasWidth/2, nameY, colGold, colWine, 3)

	awardY := nameY + 80
	dc.SetFontFace(r.Fonts.Body)
	setRGB(dc, colText)
	dc.DrawStringAnchored("é outorgado o presente certificado por ter participado do", canvasWidth/2, awardY, 0.5, 0.5)

	// Event title, wrapped at a fixed column width; every line after the first
	// pushes the rest of the layout down.
	eventY := awardY + 60
	titleLines := wrapText(in.EventTitle, titleWrapCols)
	dc.SetFontFace(r.Fonts.Title)
	setRGB(dc, colWine)
	for i, line := range titleLines {
		dc.DrawStringAnchored(line, canvasWidth/2, eventY+float64(i)*40, 0.5, 0.5)
	}

	infoY := eventY + float64(len(titleLines))*45 + 40
	dc.SetFontFace(r.Fonts.Small)
	setRGB(dc, colTextSoft)
	dc.DrawStringAnchored(dateLine(in), canvasWidth/2, infoY, 0.5, 0.5)

	orgY := infoY + 40
	dc.DrawStringAnchored(organizerLine(in), canvasWidth/2, orgY, 0.5, 0.5)

	if err := drawQR(dc, r.Fonts, in.VerifyURL); err != nil {
		return nil, err
	}
	drawFooter(dc, r.Fonts, in.Institution)
	drawWatermark(dc, r.Fonts, in.EventTitle)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawBorders(dc *gg.Context) {
	// Outer gold band, inner wine rule, thin gold rule.
	setRGB(dc, colGold)
	dc.SetLineWidth(20)
	dc.DrawRectangle(10, 10, canvasWidth-20, canvasHeight-20)
	dc.Stroke()

	setRGB(dc, colWine)
	dc.SetLineWidth(4)
	dc.DrawRectangle(30, 30, canvasWidth-60, canvasHeight-60)
	dc.Stroke()

	setRGB(dc, colGold)
	dc.SetLineWidth(2)
	dc.DrawRectangle(50, 50, canvasWidth-100, canvasHeight-100)
	dc.Stroke()
}

func drawHeader(dc *gg.Context) {
	setRGB(dc, colWine)
	dc.DrawRectangle(0, 0, canvasWidth, headerHeight)
	dc.Fill()

	setRGB(dc, colGold)
	dc.SetLineWidth(6)
	dc.DrawLine(0, headerHeight, canvasWidth, headerHeight)
	dc.Stroke()
}

// drawCornerOrnaments places the same pointed ornament in all four corners.
func drawCornerOrnaments(dc *gg.Context) {
	const size, margin = 60.0, 40.0
	positions := [][2]float64{
		{margin, margin},
		{canvasWidth - margin - size, margin},
		{margin, canvasHeight - margin - size},
		{canvasWidth - margin - size, canvasHeight - margin - size},
	}
	for _, pos := range positions {
		drawOrnament(dc, pos[0], pos[1], size)
	}
}

func drawOrnament(dc *gg.Context, x, y, s float64) {
	points := [][2]float64{
		{x, y}, {x + s/3, y}, {x + s/2, y + s/4},
		{x + s*2/3, y}, {x + s, y}, {x + s, y + s/3},
		{x + s*3/4, y + s/2}, {x + s, y + s*2/3},
		{x + s, y + s}, {x + s*2/3, y + s},
		{x + s/2, y + s*3/4}, {x + s/3, y + s},
		{x, y + s}, {x, y + s*2/3}, {x + s/4, y + s/2},
		{x, y + s/3},
	}
	dc.MoveTo(points[0][0], points[0][1])
	for _, p := range points[1:] {
		dc.LineTo(p[0], p[1])
	}
	dc.ClosePath()
	setRGB(dc, colGold)
	dc.Fill()
}

func drawSeal(dc *gg.Context, cx, cy float64) {
	const radius = 50.0

	setRGB(dc, colGold)
	dc.DrawCircle(cx, cy, radius)
	dc.FillPreserve()
	setRGB(dc, colGoldDark)
	dc.SetLineWidth(4)
	dc.Stroke()

	dc.DrawCircle(cx, cy, radius-12)
	dc.SetLineWidth(2)
	dc.Stroke()

	setRGB(dc, colWine)
	dc.DrawRegularPolygon(8, cx, cy, 20, 0)
	dc.FillPreserve()
	setRGB(dc, colGoldDark)
	dc.SetLineWidth(1)
	dc.Stroke()
}

// drawOutlinedString strokes the text by stamping it at every offset within
// the outline width, then draws the fill color on top.
func drawOutlinedString(dc *gg.Context, s string, x, y float64, fill, outline rgb, width int) {
	setRGB(dc, outline)
	for dx := -width; dx <= width; dx++ {
		for dy := -width; dy <= width; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringAnchored(s, x+float64(dx), y+float64(dy), 0.5, 0.5)
		}
	}
	setRGB(dc, fill)
	dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

func drawQR(dc *gg.Context, fonts *FontSet, verifyURL string) error {
	qr, err := qrcode.New(verifyURL, qrcode.Low)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	qrImg := qr.Image(qrSize)

	qrX := canvasWidth - qrSize - 20
	qrY := canvasHeight - qrSize - 20 - 40

	setRGB(dc, colGold)
	dc.SetLineWidth(3)
	dc.DrawRectangle(float64(qrX)-8, float64(qrY)-8, qrSize+16, qrSize+16)
	dc.Stroke()

	dc.DrawImage(qrImg, qrX, qrY)

	dc.SetFontFace(fonts.Footer)
	setRGB(dc, colWine)
	dc.DrawStringAnchored("VERIFIQUE A AUTENTICIDADE", float64(qrX)+qrSize/2, float64(qrY)+qrSize+25, 0.5, 0.5)
	return nil
}

func drawFooter(dc *gg.Context, fonts *FontSet, institution string) {
	setRGB(dc, colGold)
	dc.SetLineWidth(2)
	dc.DrawLine(80, canvasHeight-60, canvasWidth-80, canvasHeight-60)
	dc.Stroke()

	if institution == "" {
		institution = "Instituição"
	}
	dc.SetFontFace(fonts.Footer)
	setRGB(dc, colTextSoft)
	dc.DrawStringAnchored(institution+" • EventoEnsina • www.eventoensina.com", canvasWidth/2, canvasHeight-80, 0.5, 0.5)
}

// watermarkText caps the title at 40 runes; titles here routinely carry
// accented characters, so a byte slice could cut a rune in half.
func watermarkText(title string) string {
	runes := []rune(title)
	if len(runes) > 40 {
		return string(runes[:40])
	}
	return title
}

func drawWatermark(dc *gg.Context, fonts *FontSet, title string) {
	text := watermarkText(title)
	dc.SetFontFace(fonts.Watermark)
	dc.SetRGBA255(colWine.r, colWine.g, colWine.b, 15)
	dc.DrawStringAnchored(text, canvasWidth*0.5, canvasHeight*0.8, 0.5, 0.5)
}

// renderPDF wraps the PNG into a single A4 page, scaled and centered at 95%
// page utilization with the aspect ratio preserved.
func renderPDF(pngData []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	scale := math.Min(pageW/canvasWidth, pageH/canvasHeight) * 0.95
	w := canvasWidth * scale
	h := canvasHeight * scale
	x := (pageW - w) / 2
	y := (pageH - h) / 2

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("certificate", x, y, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapText breaks s into lines of at most width characters, on word
// boundaries. Words longer than the width get a line of their own.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	return append(lines, line)
}

func dateLine(in RenderInput) string {
	start := "data não informada"
	if in.StartDate != nil {
		start = in.StartDate.Format("02/01/2006")
	}
	text := start
	if in.EndDate != nil {
		text += " a " + in.EndDate.Format("02/01/2006")
	}
	if in.Hours != nil {
		text += " (" + strconv.FormatFloat(*in.Hours, 'f', -1, 64) + " horas)"
	}
	return text
}

func organizerLine(in RenderInput) string {
	org := in.Organizer
	if org == "" {
		org = "Organizador não informado"
	}
	return "Organizado por: " + org + " • Local: " + in.Location
}

func setRGB(dc *gg.Context, c rgb) {
	dc.SetRGB255(c.r, c.g, c.b)
}
