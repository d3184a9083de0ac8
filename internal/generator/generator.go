package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/marketingax/pdf-generator-service/internal/common"
)

// DefaultEtsyDesignLink is used when a request carries no listing link.
const DefaultEtsyDesignLink = "https://www.etsy.com/listing/1827167654/custom-flyer-design-party-flyer-canva"

// MaxTitleLength bounds the template title.
const MaxTitleLength = 100

var (
	ErrEmptyTitle  = errors.New("title must be a non-empty string")
	ErrTitleLength = errors.New("title must be 100 characters or less")
	ErrInvalidLink = errors.New("link must be a valid http(s) URL")
)

// Request describes one template PDF to render.
type Request struct {
	Title          string `json:"title"`
	CanvaLink      string `json:"canva_link"`
	EtsyDesignLink string `json:"etsy_design_link,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	FlyerImageURL  string `json:"flyer_image_url,omitempty"`
}

// Validate checks the request fields and fills in the default listing link.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > MaxTitleLength {
		return ErrTitleLength
	}
	if !IsHTTPURL(r.CanvaLink) {
		return fmt.Errorf("canva_link: %w", ErrInvalidLink)
	}
	for field, link := range map[string]string{
		"etsy_design_link": r.EtsyDesignLink,
		"logo_url":         r.LogoURL,
		"flyer_image_url":  r.FlyerImageURL,
	} {
		if link != "" && !IsHTTPURL(link) {
			return fmt.Errorf("%s: %w", field, ErrInvalidLink)
		}
	}
	if r.EtsyDesignLink == "" {
		r.EtsyDesignLink = DefaultEtsyDesignLink
	}
	return nil
}

// IsHTTPURL reports whether s looks like an absolute http(s) URL.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Generator renders one-page template PDFs with clickable call-to-action
// buttons and optionally embedded remote images.
type Generator struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a generator with a bounded HTTP client for image fetches.
func New(logger *slog.Logger) *Generator {
	return &Generator{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Generate renders the template PDF for req at outputPath. Remote image
// failures degrade to the text-only layout; they never fail the document.
func (g *Generator) Generate(req Request, outputPath string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), common.DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	g.logger.Info("creating template PDF", "output", outputPath, "title", req.Title)

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(req.Title, true)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()

	if req.LogoURL != "" {
		g.placeImage(pdf, req.LogoURL, "logo", pageW-130, 30, 100, 50)
	}

	// Title with [Template] suffix.
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 18)
	centeredText(pdf, pageW, 56, req.Title+" [Template]")

	pdf.SetFont("Helvetica", "", 14)
	centeredText(pdf, pageW, 116, "Thank you for your purchase!")

	pdf.SetFont("Helvetica", "", 12)
	centeredText(pdf, pageW, 146, "Click the button below to download and edit your template.")

	g.button(pdf, pageW, 190, 300, 35, 12, "Download & Edit Template", req.CanvaLink)
	g.button(pdf, pageW, 270, 250, 30, 11, "Need a Custom Design?", req.EtsyDesignLink)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	centeredText(pdf, pageW, 336, "Need help customizing this template or want a completely custom design?")
	centeredText(pdf, pageW, 356, "Click the button above to get professional design assistance!")

	pdf.SetFont("Helvetica", "B", 11)
	centeredText(pdf, pageW, 410, "Template Information:")

	pdf.SetFont("Helvetica", "", 10)
	infoY := 435.0
	for _, line := range []string{
		"- This is a digital template - no physical product will be shipped",
		"- Template is fully customizable using Canva",
		"- No design software experience required",
		"- High-resolution output suitable for printing",
		"- Compatible with standard paper sizes",
	} {
		pdf.Text(80, infoY, line)
		infoY += 18
	}

	if req.FlyerImageURL != "" {
		g.placeImageCentered(pdf, req.FlyerImageURL, "flyer", pageW, infoY+20, 150)
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(77, 77, 77)
	centeredText(pdf, pageW, 720, "We appreciate you as our customer! Your 5-star reviews mean the world to us!")

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}

	g.logger.Info("template PDF created", "output", outputPath)
	return nil
}

// button draws a filled, centered call-to-action rectangle with white
// label text and a clickable link over its full area.
func (g *Generator) button(pdf *fpdf.Fpdf, pageW, y, w, h, fontSize float64, label, url string) {
	x := (pageW - w) / 2

	pdf.SetFillColor(51, 128, 204)
	pdf.Rect(x, y, w, h, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", fontSize)
	centeredText(pdf, pageW, y+h/2+fontSize/3, label)

	pdf.LinkString(x, y, w, h, url)
}

// placeImage fetches a remote image and draws it inside the given box,
// preserving aspect ratio. Failures are logged and the layout continues
// without the image.
func (g *Generator) placeImage(pdf *fpdf.Fpdf, url, name string, x, y, maxW, maxH float64) {
	info, ok := g.registerRemoteImage(pdf, url, name)
	if !ok {
		return
	}

	w, h := fitBox(info.Width(), info.Height(), maxW, maxH)
	pdf.ImageOptions(name, x, y, w, h, false, fpdf.ImageOptions{}, 0, "")
}

// placeImageCentered is placeImage with horizontal centering for a fixed
// target height.
func (g *Generator) placeImageCentered(pdf *fpdf.Fpdf, url, name string, pageW, y, targetH float64) {
	info, ok := g.registerRemoteImage(pdf, url, name)
	if !ok {
		return
	}

	w := info.Width() * (targetH / info.Height())
	pdf.ImageOptions(name, (pageW-w)/2, y, w, targetH, false, fpdf.ImageOptions{}, 0, "")
}

// registerRemoteImage downloads an image and registers it with the
// document under name. Unsupported formats and fetch errors are soft
// failures.
func (g *Generator) registerRemoteImage(pdf *fpdf.Fpdf, url, name string) (*fpdf.ImageInfoType, bool) {
	resp, err := g.client.Get(url)
	if err != nil {
		g.logger.Warn("failed to fetch remote image", "url", url, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("remote image fetch returned non-OK status", "url", url, "status", resp.StatusCode)
		return nil, false
	}

	imageType := imageTypeFor(resp.Header.Get("Content-Type"), url)
	if imageType == "" {
		g.logger.Warn("unsupported remote image type", "url", url)
		return nil, false
	}

	info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, resp.Body)
	if pdf.Err() {
		g.logger.Warn("failed to register remote image", "url", url, "error", pdf.Error())
		pdf.ClearError()
		return nil, false
	}
	return info, true
}

// imageTypeFor maps a content type (or URL extension) to an fpdf image
// type identifier.
func imageTypeFor(contentType, url string) string {
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "JPG"
	case strings.Contains(contentType, "png"):
		return "PNG"
	case strings.Contains(contentType, "gif"):
		return "GIF"
	}
	switch strings.ToLower(filepath.Ext(url)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	}
	return ""
}

// fitBox scales (w, h) down to fit inside (maxW, maxH) preserving aspect
// ratio.
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	return w * scale, h * scale
}

// centeredText draws s horizontally centered at baseline y.
func centeredText(pdf *fpdf.Fpdf, pageW, y float64, s string) {
	pdf.Text((pageW-pdf.GetStringWidth(s))/2, y, s)
}
