package deployer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/pypi-deployer/internal/domain/release"
)

// Styles for the operator-facing surface: prompts, summaries and checklists.
// Subprocess output and structured logs are not styled here.
var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// printer renders human-readable status lines for the operator.
type printer struct {
	w io.Writer
}

// newPrinter builds a printer, defaulting to standard output.
func newPrinter(w io.Writer) *printer {
	if w == nil {
		w = os.Stdout
	}

	return &printer{w: w}
}

func (p *printer) info(message string) {
	fmt.Fprintln(p.w, infoStyle.Render(message))
}

func (p *printer) success(message string) {
	fmt.Fprintln(p.w, successStyle.Render(message))
}

func (p *printer) warning(message string) {
	fmt.Fprintln(p.w, warningStyle.Render(message))
}

// listArtifacts prints the files produced by the build stage.
func (p *printer) listArtifacts(artifacts []string) {
	p.info("Built files:")

	for _, artifact := range artifacts {
		fmt.Fprintf(p.w, "  %s\n", filepath.Base(artifact))
	}
}

// printPublishChecklist reminds the operator what must be in place before an upload.
func (p *printer) printPublishChecklist() {
	fmt.Fprintln(p.w)
	p.warning("About to upload to the package registry. Make sure you have:")
	p.warning("1. Configured your registry credentials (~/.pypirc or environment variables)")
	p.warning("2. Tested the package locally")
	p.warning("3. Updated documentation and changelog")
}

// printSummary prints the final deployment report.
func (p *printer) printSummary(request release.Request) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, headerStyle.Render("Deployment Summary"))

	if request.PackageName != "" {
		p.info("  Package:  " + request.PackageName)
	}

	p.info("  Version:  " + request.Target.String())
	p.info("  Previous: " + request.Current.String())
	p.info("  Status:   published")
}

// printNextSteps suggests, but does not execute, the follow-up actions.
func (p *printer) printNextSteps(target release.Version) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, headerStyle.Render("Next steps"))
	p.info(fmt.Sprintf("1. Tag the release: git tag v%s && git push origin v%s", target, target))
	p.info("2. Create a release page with the changelog")
	p.info("3. Update documentation if needed")
}
