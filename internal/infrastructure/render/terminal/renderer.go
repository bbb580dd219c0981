package terminal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
)

// DownloadStore receives files the user asked to download.
type DownloadStore interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
}

// Renderer draws session output on a terminal. Calls may come from several
// goroutines; each one writes a complete block.
type Renderer struct {
	mu        sync.Mutex
	out       io.Writer
	theme     theme
	downloads DownloadStore
	logger    *slog.Logger
}

func New(out io.Writer, downloads DownloadStore, logger *slog.Logger) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		out:       out,
		theme:     newTheme(lipgloss.NewRenderer(out)),
		downloads: downloads,
		logger:    logger,
	}
}

func (r *Renderer) ShowProcessing(active bool) {
	if !active {
		return
	}
	r.println(r.theme.muted.Render("Reconciling invoices..."))
}

// ClearResults starts a fresh results block.
func (r *Renderer) ClearResults() {
	r.println(r.theme.muted.Render(strings.Repeat("-", 40)))
}

func (r *Renderer) DisplayCounts(tally domain.StatusTally) {
	parts := make([]string, 0, len(tally))
	for _, status := range domain.KnownStatuses() {
		parts = append(parts, r.statusCount(string(status), tally.Count(status)))
	}

	other := tally.Unrecognized()
	names := make([]string, 0, len(other))
	for status := range other {
		names = append(names, string(status))
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, r.statusCount(name, other[domain.ReconciliationStatus(name)]))
	}

	r.println(r.theme.title.Render("Summary"), "\n", strings.Join(parts, "   "))
}

func (r *Renderer) DisplayTable(records []domain.ReconciliationRecord) {
	if len(records) == 0 {
		r.println(r.theme.muted.Render("No invoices to display."))
		return
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.InvoiceNumber,
			rec.GSTIN,
			statusLabel(string(rec.Status)),
			rec.Explanation,
			rec.SuggestedAction,
		})
	}
	t := r.table(
		[]string{"Invoice", "GSTIN", "Status", "Explanation", "Suggested Action"},
		rows,
		func(row int) string { return string(records[row].Status) },
		2,
	)
	r.println(t.Render())
}

func (r *Renderer) DisplayUsage(totalInvoices int) {
	r.println(r.theme.muted.Render("Invoices processed: " + strconv.Itoa(totalInvoices)))
}

func (r *Renderer) DisplayVendorSummary(vendors []domain.VendorRow) {
	if len(vendors) == 0 {
		return
	}
	rows := make([][]string, 0, len(vendors))
	for _, v := range vendors {
		rows = append(rows, []string{
			v.Summary.VendorGSTIN,
			strconv.Itoa(v.Summary.TotalInvoices),
			strconv.Itoa(v.Summary.MissingIn2BCount),
			strconv.Itoa(v.Summary.RiskyCount),
			string(v.Summary.VendorRiskLevel),
		})
	}
	t := r.table(
		[]string{"Vendor GSTIN", "Invoices", "Missing in 2B", "Risky", "Risk Level"},
		rows,
		func(row int) string { return string(vendors[row].Badge) },
		4,
	)
	r.println(r.theme.title.Render("Vendor Risk"), "\n", t.Render())
}

func (r *Renderer) DisplayError(message string) {
	r.println(r.theme.errText.Render(message))
}

func (r *Renderer) Alert(message string) {
	r.println(r.theme.alert.Render("! " + message))
}

func (r *Renderer) TriggerDownload(ctx context.Context, handle domain.BlobHandle, filename string) error {
	if r.downloads == nil {
		return fmt.Errorf("no download location configured")
	}
	src, err := os.Open(handle.Path)
	if err != nil {
		return fmt.Errorf("open spooled report: %w", err)
	}
	defer src.Close()

	path, err := r.downloads.Save(ctx, filename, src)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	r.logger.Info("report_downloaded", "path", path, "bytes", handle.Size)
	r.println("Saved " + filename + " to " + path)
	return nil
}

func (r *Renderer) ResetInputSource() {
	r.println(r.theme.muted.Render("Ready for the next file."))
}

func (r *Renderer) statusCount(status string, n int) string {
	return r.theme.badge(status).Render(statusLabel(status)) + " " + strconv.Itoa(n)
}

// table renders rows with the badge column colored by classOf.
func (r *Renderer) table(headers []string, rows [][]string, classOf func(row int) string, badgeCol int) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.theme.header
			}
			if col == badgeCol && row >= 0 && row < len(rows) {
				return r.theme.badge(classOf(row)).Padding(0, 1)
			}
			return r.theme.cell
		})
}

func (r *Renderer) println(parts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, strings.Join(parts, ""))
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
